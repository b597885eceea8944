package httpx

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/nexbill/payments/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error maps the apperr taxonomy to HTTP statuses. Internal errors are
// logged with their cause and returned to the client as a generic body.
func Error(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	switch ae.Kind {
	case apperr.KindValidation:
		JSONError(w, http.StatusBadRequest, ae.Code, ae.Details)
	case apperr.KindNotFound:
		JSONError(w, http.StatusNotFound, ae.Code, nil)
	case apperr.KindConflict:
		JSONError(w, http.StatusConflict, ae.Code, ae.Details)
	default:
		log.Printf("internal error: %v", ae)
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
