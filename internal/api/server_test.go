package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ambapak/internal/logger"
	"github.com/samcharles93/ambapak/pkg/amba"
)

type fixtureStore struct {
	payloads map[string][]byte
	meta     map[string]amba.PartMeta
}

func (s *fixtureStore) PayloadSize(tag string) (int64, error) {
	b, ok := s.payloads[tag]
	if !ok {
		return 0, fmt.Errorf("no artifact %q", tag)
	}
	return int64(len(b)), nil
}

func (s *fixtureStore) OpenPayload(tag string) (io.ReadCloser, error) {
	b, ok := s.payloads[tag]
	if !ok {
		return nil, fmt.Errorf("no artifact %q", tag)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *fixtureStore) PartMeta(slot int, tag string) (amba.PartMeta, error) {
	return s.meta[tag], nil
}

func (s *fixtureStore) Block(name string) ([]byte, error) { return nil, nil }

func writeFixture(t *testing.T, path string) {
	t.Helper()

	rng := rand.New(rand.NewSource(42))
	payload := make([]byte, 2048)
	for i := range payload {
		payload[i] = byte(rng.Intn(256))
	}
	store := &fixtureStore{
		payloads: map[string][]byte{"bst": payload},
		meta: map[string]amba.PartMeta{
			"bst": {
				Version:   amba.PackVersion(1, 4),
				BuildDate: amba.PackBuildDate(2016, 6, 1),
				MemAddr:   0x10000000,
			},
		},
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = amba.Pack(f, amba.ContainerMeta{
		ModelName: "YDXJ_Z16",
		TypeTags:  []string{"bst"},
		Lengths:   make([]uint32, 9),
	}, store)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
}

func newTestEcho(t *testing.T) (*echo.Echo, string) {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "firmware.bin"))

	log := logger.JSON(io.Discard, slog.LevelError)
	server := NewServer(dir, log)
	e := echo.New()
	server.Register(e)
	return e, dir
}

func doGet(t *testing.T, e *echo.Echo, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListFirmware(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doGet(t, e, "/v1/firmware")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}

	var resp ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("got %d entries, want 1", len(resp.Data))
	}
	fw := resp.Data[0]
	if fw.Name != "firmware.bin" {
		t.Errorf("Name = %q", fw.Name)
	}
	if fw.Model != "YDXJ_Z16" {
		t.Errorf("Model = %q", fw.Model)
	}
	if fw.Size == 0 {
		t.Error("Size = 0")
	}
}

func TestFirmwareReport(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doGet(t, e, "/v1/firmware/firmware.bin")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}

	var report FirmwareReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.ID == "" || report.Object != "firmware.report" {
		t.Errorf("identity = %q / %q", report.ID, report.Object)
	}
	if report.Model != "YDXJ_Z16" {
		t.Errorf("Model = %q", report.Model)
	}
	if len(report.Parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(report.Parts))
	}
	p := report.Parts[0]
	if p.Slot != 0 || p.Type != "bst" || p.Name != "Bootstraper" {
		t.Errorf("part = %+v", p)
	}
	if p.Version != "1.4" || p.BuildDate != "2016-06-01" {
		t.Errorf("version/date = %q / %q", p.Version, p.BuildDate)
	}
	if len(report.Anomalies) != 0 {
		t.Errorf("anomalies on a clean container: %v", report.Anomalies)
	}
	if len(report.EmptySlots) != 8 {
		t.Errorf("got %d empty slots, want 8", len(report.EmptySlots))
	}
}

func TestFirmwareReportNotFound(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doGet(t, e, "/v1/firmware/missing.bin")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestFirmwareReportRejectsGarbage(t *testing.T) {
	t.Parallel()

	e, dir := newTestEcho(t)
	if err := os.WriteFile(filepath.Join(dir, "junk.bin"), []byte("not a container"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := doGet(t, e, "/v1/firmware/junk.bin")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status %d, want 422; body=%s", rec.Code, rec.Body.String())
	}
}
