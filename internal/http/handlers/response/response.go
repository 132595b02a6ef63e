package response

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	MessageInvalidRequest = "Invalid request."
	MessageInternalError  = "Internal error."
)

// Envelope wraps every response body.
type Envelope struct {
	Status     bool        `json:"status"`
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

// FieldErrors maps an input field to its error messages.
type FieldErrors map[string][]string

type fieldErrorsData struct {
	Errors FieldErrors `json:"errors"`
}

func RenderOK(rw http.ResponseWriter, message string, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	Render(rw, Envelope{Status: true, Message: message, Data: data}, http.StatusOK)
}

func RenderInternalError(rw http.ResponseWriter) {
	RenderError(rw, MessageInternalError, http.StatusInternalServerError)
}

func RenderInvalidRequest(rw http.ResponseWriter) {
	RenderError(rw, MessageInvalidRequest, http.StatusBadRequest)
}

func RenderError(rw http.ResponseWriter, message string, status int) {
	Render(rw, Envelope{Message: message, Data: struct{}{}}, status)
}

func RenderFieldErrors(rw http.ResponseWriter, message string, errs FieldErrors) {
	Render(rw, Envelope{Message: message, Data: fieldErrorsData{Errors: errs}}, http.StatusBadRequest)
}

// RenderValidationError renders ozzo field errors, anything else becomes an
// invalid request without details.
func RenderValidationError(rw http.ResponseWriter, err error) {
	var validationErrs validation.Errors
	if !errors.As(err, &validationErrs) {
		RenderInvalidRequest(rw)
		return
	}
	RenderFieldErrors(rw, MessageInvalidRequest, FromValidationErrors(validationErrs))
}

func FromValidationErrors(errs validation.Errors) FieldErrors {
	fieldErrs := make(FieldErrors, len(errs))
	for field, err := range errs {
		if err == nil {
			continue
		}
		fieldErrs[field] = []string{err.Error()}
	}
	return fieldErrs
}

func Render(rw http.ResponseWriter, envelope Envelope, status int) {
	rw.Header().Set("Content-Type", "application/json")
	envelope.StatusCode = status

	content, err := json.Marshal(envelope)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	rw.WriteHeader(status)
	rw.Write(content)
}
