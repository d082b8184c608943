package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/notekeeper/apiserver/internal/logging"
	"github.com/notekeeper/apiserver/internal/services"
)

type contextKey string

const contextUserIDKey contextKey = "user_id"

// maxFormMemory bounds the in-memory part of multipart bodies; larger files spill to disk.
const maxFormMemory = 8 << 20

// ErrorResponse is the error payload returned by every endpoint.
type ErrorResponse struct {
	Msg    string                `json:"msg"`
	Errors []services.FieldError `json:"errors,omitempty"`
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextUserIDKey, userID)
}

// UserIDFromContext returns the authenticated user id set by RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(contextUserIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Msg: message})
}

// writeServiceError maps service errors onto status codes. Anything unknown
// is logged and reported as a 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Msg: "Validation Error", Errors: verr.Fields})
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, services.ErrFederatedAccount):
		writeError(w, http.StatusBadRequest, "Password reset is not available for this account")
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not Found")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusNotFound, "Not Allowed")
	default:
		log.Error(r.Context(), "request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// requestFields holds the string fields of a JSON, urlencoded or multipart body.
type requestFields map[string]string

// get returns the trimmed value of key, or "" when absent.
func (f requestFields) get(key string) string {
	return strings.TrimSpace(f[key])
}

// raw returns the value of key untouched.
func (f requestFields) raw(key string) string {
	return f[key]
}

// optional returns nil when key is absent or blank.
func (f requestFields) optional(key string) *string {
	value, ok := f[key]
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

var (
	errInvalidBody  = errors.New("invalid request body")
	errBodyTooLarge = errors.New("request body too large")
)

// bodyError reports errBodyTooLarge when err comes from a LimitBody reader.
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errBodyTooLarge
	}
	return errInvalidBody
}

func writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid request body")
}

// parseFields reads the request body according to its content type. An empty
// body yields no fields.
func parseFields(r *http.Request) (requestFields, error) {
	fields := requestFields{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, bodyError(err)
		}
		for key, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		for key := range r.PostForm {
			fields[key] = r.PostForm.Get(key)
		}
	default:
		if r.Body == nil || r.Body == http.NoBody {
			return fields, nil
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			if errors.Is(err, io.EOF) {
				return fields, nil
			}
			return nil, bodyError(err)
		}
		for key, value := range body {
			if s, ok := value.(string); ok {
				fields[key] = s
			}
		}
	}
	return fields, nil
}
