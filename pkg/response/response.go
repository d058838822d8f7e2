package response

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorDetail is the error half of the JSON envelope.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type errorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// JSON writes v as a JSON body with the given status. Encoding failures
// after the header is written cannot be recovered, so they are swallowed.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error envelope with the given status. An empty code
// falls back to the lowercased standard status text style "internal_error".
func Error(w http.ResponseWriter, status int, code, message string) {
	if code == "" {
		code = "internal_error"
	}
	JSON(w, status, errorEnvelope{Error: ErrorDetail{Code: code, Message: message}})
}

// PNG writes raw PNG bytes with an image content type.
func PNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
