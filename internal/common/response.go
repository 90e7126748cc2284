package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// DetailResponse is the error envelope: a detail field carrying either a
// human-readable string or a list of field-level validation issues.
type DetailResponse struct {
	Detail interface{} `json:"detail"`
}

type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, DetailResponse{Detail: message})
}

// RespondWithDomainError maps a service-layer error to a status code and
// writes the detail envelope. Validator errors are rendered as a list of
// field issues; anything else as a string.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		issues := make([]FieldIssue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, FieldIssue{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			})
		}
		RespondWithJSON(w, http.StatusUnprocessableEntity, DetailResponse{Detail: issues})
		return
	}
	RespondWithError(w, HTTPStatusFromError(err), err.Error())
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
