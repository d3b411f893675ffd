package api

import (
	"net/http"

	"github.com/labstack/echo/v5"
)

// FirmwareInfo is one entry of the firmware listing.
type FirmwareInfo struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Model string `json:"model,omitempty"`
}

type ListResponse struct {
	Object string         `json:"object"`
	Data   []FirmwareInfo `json:"data"`
}

// PartReport describes one partition in a firmware report.
type PartReport struct {
	Slot       int    `json:"slot"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	BuildDate  string `json:"build_date"`
	MemAddr    string `json:"mem_addr"`
	Length     uint32 `json:"length"`
	CRC32      string `json:"crc32"`
	SubPayload string `json:"sub_payload,omitempty"`
	SubLength  int64  `json:"sub_length,omitempty"`
}

type AnomalyReport struct {
	Kind    string `json:"kind"`
	Slot    int    `json:"slot"`
	Message string `json:"message"`
}

// FirmwareReport is the full verification report for one container.
type FirmwareReport struct {
	ID         string          `json:"id"`
	Object     string          `json:"object"`
	Name       string          `json:"name"`
	Model      string          `json:"model"`
	Size       int64           `json:"size"`
	CRC32      string          `json:"crc32"`
	StopReason string          `json:"stop_reason"`
	Parts      []PartReport    `json:"parts"`
	EmptySlots []int           `json:"empty_slots"`
	Anomalies  []AnomalyReport `json:"anomalies"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
		},
	})
}
