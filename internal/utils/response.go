package utils

import (
	"encoding/json"
	"net/http"

	"carspace-backend/internal/dto"
)

// WriteJSONResponse writes a JSON response to the HTTP response writer
func WriteJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteErrorResponse writes a JSON error payload. The message must already be
// safe to show to clients; raw driver errors stay in the server logs.
func WriteErrorResponse(w http.ResponseWriter, status int, errMsg, message string) {
	WriteJSONResponse(w, status, dto.ErrorResponse{
		Error:   errMsg,
		Message: message,
	})
}

// DecodeJSONRequest decodes the request body into v, writing a 400 response
// on failure. Callers should return immediately when an error is reported.
func DecodeJSONRequest(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return err
	}
	return nil
}
