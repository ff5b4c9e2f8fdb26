package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"KingOfTheBlock/internal/game"
)

// Transport-level error codes, alongside the game codes.
const (
	codeBadRequest    = "INVALID_REQUEST"
	codeMissingSigner = "MISSING_SIGNER"
	codeNotFound      = "NOT_FOUND"
	codeInternal      = "INTERNAL"
)

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] write response: %v", err)
	}
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// writeError maps game errors to their status; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	var gerr *game.Error
	if errors.As(err, &gerr) {
		writeJSON(w, gerr.Code.HTTPStatus(), errorBody{
			Code:     string(gerr.Code),
			Message:  gerr.Message,
			Metadata: gerr.Metadata,
		})
		return
	}
	log.Printf("[ERROR] request failed: %v", err)
	writeFailure(w, http.StatusInternalServerError, codeInternal, "internal error")
}
