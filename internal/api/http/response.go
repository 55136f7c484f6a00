package http

import (
	"net/http"

	"github.com/deskbridge/deskapi/pkg/httpx"
)

// apiResponse is the envelope every endpoint returns. Code mirrors the HTTP
// status so remote-desktop clients that only inspect the body keep working.
type apiResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeSuccess(w http.ResponseWriter, data any) {
	httpx.WriteJSON(w, http.StatusOK, apiResponse{
		Code:    http.StatusOK,
		Message: "Success",
		Data:    data,
	})
}

func writeMessage(w http.ResponseWriter, message string) {
	httpx.WriteJSON(w, http.StatusOK, apiResponse{
		Code:    http.StatusOK,
		Message: message,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	httpx.WriteJSON(w, status, apiResponse{
		Code:    status,
		Message: message,
	})
}
