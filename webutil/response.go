package webutil

import (
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"
)

var developmentMode atomic.Bool

// SetDevelopmentMode controls whether error responses include the underlying error text.
func SetDevelopmentMode(enabled bool) {
	developmentMode.Store(enabled)
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// RespondWithError writes a {success:false} body. cause is only exposed in development mode.
func RespondWithError(w http.ResponseWriter, code int, message string, cause error) {
	body := ErrorResponse{Success: false, Message: message}
	if cause != nil && developmentMode.Load() {
		body.Error = cause.Error()
	}
	RespondWithJSON(w, code, body)
}

func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: Failed to marshal JSON response: %v", err)
		w.Header().Set(HeaderContentType, ContentTypeJSONUTF8)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Internal Server Error"}`))
		return
	}

	w.Header().Set(HeaderContentType, ContentTypeJSONUTF8)
	w.WriteHeader(status)
	_, _ = w.Write(response)
}
