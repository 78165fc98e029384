package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/wonny/limitrade/internal/contracts"
	"github.com/wonny/limitrade/internal/strategyconfig"
)

// maxBodyBytes bounds request bodies; snapshot sets are the largest payloads
const maxBodyBytes = 8 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// StatusFor maps the error taxonomy onto HTTP status codes
func StatusFor(err error) int {
	var verr strategyconfig.ValidationError
	switch {
	case errors.Is(err, contracts.ErrInvalidProfile),
		errors.Is(err, contracts.ErrInvalidSnapshot),
		errors.Is(err, contracts.ErrInvalidParams),
		errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrPoolTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contracts.ErrEmptyInput):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondDomainError writes err with its mapped status; internal details stay out of 500 bodies
func respondDomainError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		respondError(w, status, "internal server error")
		return
	}
	respondError(w, status, err.Error())
}

// decodeJSON reads a bounded body strictly into dest
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// clientID identifies the caller for per-client rate limits
func clientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
