package httpx

import (
	"net/http"

	"github.com/go-chi/render"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the shape of every API response body.
type Envelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode,omitempty"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// WriteJSON sends v as is, with the given status.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func WriteSuccess(w http.ResponseWriter, r *http.Request, status int, msg string, data any) {
	WriteJSON(w, r, status, Envelope{
		Status:  StatusSuccess,
		Message: msg,
		Data:    data,
	})
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, Envelope{
		Status:     StatusError,
		StatusCode: status,
		Message:    msg,
	})
}
