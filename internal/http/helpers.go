package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spendlog/internal/core"
)

// parseFilterSpec builds a FilterSpec from query parameters. Unknown or
// malformed values are rejected rather than silently ignored.
func parseFilterSpec(r *http.Request) (core.FilterSpec, error) {
	var spec core.FilterSpec

	if v := strings.TrimSpace(r.URL.Query().Get("category")); v != "" {
		c := core.Category(v)
		if !c.Valid() {
			return spec, fmt.Errorf("category %q: %w", v, core.ErrInvalidCategory)
		}
		spec.Category = &c
	}
	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return spec, fmt.Errorf("start date %q: %w", v, err)
		}
		spec.Start = &d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return spec, fmt.Errorf("end date %q: %w", v, err)
		}
		spec.End = &d
	}

	return spec, nil
}

// parseExpenseID extracts the numeric id from /expenses/{id}.
func parseExpenseID(path string) (int64, error) {
	raw := strings.TrimPrefix(path, "/expenses/")
	if raw == "" || strings.Contains(raw, "/") {
		return 0, fmt.Errorf("invalid expense path %q", path)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expense id %q", raw)
	}
	return id, nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
