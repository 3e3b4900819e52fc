package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every failed JSON request. Kind is the broad
// class of the failure (validation, not_found, state, ...), Code the exact
// reason a client can switch on.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, e ErrorResponse) {
	WriteJSON(w, status, e)
}
