package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/errors"
)

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	c := string(code)
	switch {
	case strings.HasPrefix(c, "NOT_FOUND_"):
		return http.StatusNotFound
	case strings.HasPrefix(c, "STRUCTURAL_"), strings.HasPrefix(c, "DUPLICATE_"):
		return http.StatusConflict
	case strings.HasPrefix(c, "INVALID_"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err)})
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid request body")
	}
	return errors.ValidateStruct(v)
}

// idParam parses a uuid path parameter.
func idParam(r *http.Request, name string) (uuid.UUID, error) {
	return parseID(chi.URLParam(r, name), name)
}

func parseID(s, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.New(errors.ErrCodeInvalidInput, "%s: %q is not a valid id", field, s)
	}
	return id, nil
}
