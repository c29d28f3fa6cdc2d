package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	httperrors "github.com/humapedia/humapedia/internal/transport/http/errors"
)

const defaultUserID = "demo-user"

// userID resolves the caller from the user_id query parameter, falling
// back to the X-User-ID header. There is no auth layer; unidentified
// callers share the demo account.
func userID(r *http.Request) string {
	for _, key := range []string{"user_id", "userId"} {
		if id := strings.TrimSpace(r.URL.Query().Get(key)); id != "" {
			return id
		}
	}
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return defaultUserID
}

// callerID prefers an explicit user id carried in the request body.
func callerID(r *http.Request, bodyUserID string) string {
	if id := strings.TrimSpace(bodyUserID); id != "" {
		return id
	}
	return userID(r)
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func queryInt(r *http.Request, key string) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}
