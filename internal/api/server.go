// Package api exposes read-only firmware inspection over HTTP: a listing
// of the containers in a directory and a per-container verification
// report. Nothing here writes to the firmware files.
package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ambapak/internal/logger"
	"github.com/samcharles93/ambapak/pkg/amba"
)

// Server serves firmware reports for the containers under a single
// directory.
type Server struct {
	dir string
	log logger.Logger
}

func NewServer(dir string, log logger.Logger) *Server {
	return &Server{dir: dir, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/firmware", s.handleList)
	e.GET("/v1/firmware/:name", s.handleReport)
}

func (s *Server) handleList(c *echo.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}

	data := make([]FirmwareInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		fw := FirmwareInfo{Name: entry.Name(), Size: info.Size()}
		// Best effort; files that are not containers list without a model.
		if model, err := amba.ProbeModel(filepath.Join(s.dir, entry.Name())); err == nil {
			fw.Model = model
		}
		data = append(data, fw)
	}

	return c.JSON(http.StatusOK, ListResponse{Object: "list", Data: data})
}

func (s *Server) handleReport(c *echo.Context) error {
	name := c.Param("name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return writeBadRequest(c, "invalid firmware name")
	}

	path := filepath.Join(s.dir, name)
	stat, err := os.Stat(path)
	if err != nil || !stat.Mode().IsRegular() {
		return writeNotFound(c, fmt.Sprintf("no firmware named %q", name))
	}

	res, err := amba.ExtractFile(path, amba.DiscardSink{}, amba.ExtractOptions{})
	if err != nil {
		s.log.Warn("firmware report failed", "name", name, "error", err)
		return writeError(c, http.StatusUnprocessableEntity, "invalid_container_error", err.Error())
	}

	report := FirmwareReport{
		ID:         "fwrep-" + uuid.NewString(),
		Object:     "firmware.report",
		Name:       name,
		Model:      res.Model,
		Size:       stat.Size(),
		CRC32:      fmt.Sprintf("%08X", res.Header.CRC32),
		StopReason: res.Stop.String(),
		Parts:      make([]PartReport, 0, len(res.Parts)),
		EmptySlots: res.EmptySlots,
		Anomalies:  make([]AnomalyReport, 0, len(res.Anomalies)),
	}
	for _, p := range res.Parts {
		report.Parts = append(report.Parts, PartReport{
			Slot:       p.Slot,
			Type:       p.Tag,
			Name:       amba.PartTypeName(p.Slot),
			Version:    p.Header.VersionString(),
			BuildDate:  p.Header.BuildDateString(),
			MemAddr:    fmt.Sprintf("%08X", p.Header.MemAddr),
			Length:     p.Header.Len,
			CRC32:      fmt.Sprintf("%08X", p.Header.CRC32),
			SubPayload: p.SubTag,
			SubLength:  p.SubLen,
		})
	}
	for _, a := range res.Anomalies {
		report.Anomalies = append(report.Anomalies, AnomalyReport{
			Kind:    a.Kind.String(),
			Slot:    a.Slot,
			Message: a.Msg,
		})
	}

	s.log.Info("firmware report", "name", name, "model", res.Model, "parts", len(res.Parts), "anomalies", len(res.Anomalies))
	return c.JSON(http.StatusOK, report)
}
