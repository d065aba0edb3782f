package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/kasir/internal/domain"
)

// marshalPayload converts a request to JSON TEXT for storage.
// HTML escaping is disabled so customer names and notes are stored as typed.
func marshalPayload(req domain.TransactionRequest) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalPayload parses a stored payload.
func unmarshalPayload(data string) (domain.TransactionRequest, error) {
	var req domain.TransactionRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return domain.TransactionRequest{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return req, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at: %w", err)
	}
	return t, nil
}
