package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/logger"
)

const maxJSONBody = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the validate tags on v and reports the first failure.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !stderrors.As(err, &ves) || len(ves) == 0 {
		return errors.NewBadRequestError("invalid request body")
	}
	fe := ves[0]
	return errors.NewValidationError(fe.Field(), validationReason(fe))
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "dive":
		return "contains an invalid item"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		logger.FromContext(r.Context()).Debug("failed to decode request body: %v", err)

		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case stderrors.As(err, &maxErr):
			return errors.NewBadRequestError("request body too large")
		case stderrors.Is(err, io.EOF):
			return errors.NewBadRequestError("request body is empty")
		case stderrors.As(err, &typeErr) && typeErr.Field != "":
			return errors.NewValidationError(typeErr.Field, "has the wrong type")
		default:
			return errors.NewBadRequestError("malformed JSON body")
		}
	}
	return nil
}

// decodeAndValidate decodes the body into dst and runs its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return validateStruct(dst)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response: %v", err)
	}
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

func optionalIDQuery(raw, name string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.NewValidationError(name, "must be a positive integer")
	}
	return &id, nil
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.NewValidationError(name, "must be a non-negative integer")
	}
	return n, nil
}

type successResponse struct {
	Success bool `json:"success"`
}
