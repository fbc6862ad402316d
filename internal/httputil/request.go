package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"assetlib/internal/domain"
)

// ParseJSON decodes a JSON request body into dest.
// It limits the request body size to prevent abuse; decode failures wrap
// domain.ErrValidation.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	// Limit request body to 1MB (requires w for proper 413 response)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", domain.ErrValidation, err)
	}

	return nil
}

// QueryInt reads an integer query parameter, returning def when absent
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, key)
	}
	return v, nil
}

// QueryBool reads a boolean query parameter, returning false when absent
func QueryBool(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", domain.ErrValidation, key)
	}
	return v, nil
}
