package verifytoken

import (
	"errors"
	"io"
	"net/http"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/reset"
	"passreset/internal/core/services"
	service "passreset/internal/core/services/verify_token"
	passwordreset "passreset/internal/http/handlers/password_reset"
	"passreset/internal/http/handlers/response"

	validation "github.com/go-ozzo/ozzo-validation"
)

type Handler struct {
	service services.Service[service.Input, service.Result]
}

func New(service services.Service[service.Input, service.Result]) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service}
}

type Input struct {
	Token string `json:"token"`
}

func (i *Input) FromJSON(r io.Reader) error {
	return passwordreset.DecodeJSON(r, i)
}

func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Token, validation.Required, validation.Length(0, 256)),
	)
}

type Result struct {
	Valid bool   `json:"valid"`
	Email string `json:"email"`
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	input := Input{}
	if err := input.FromJSON(r.Body); err != nil {
		response.RenderInvalidRequest(rw)
		return
	}
	if err := input.Validate(); err != nil {
		response.RenderValidationError(rw, err)
		return
	}

	result, err := h.service.Run(r.Context(), service.Input{Token: reset.TokenValue(input.Token)})
	switch {
	case err == nil:
		response.RenderOK(rw, passwordreset.MessageTokenValid, Result{Valid: true, Email: string(result.Email)})
	case errors.Is(err, reset.ErrTokenExpired):
		renderTokenError(rw, passwordreset.MessageExpiredToken)
	case reset.IsRejection(err):
		renderTokenError(rw, passwordreset.MessageInvalidToken)
	default:
		response.RenderInternalError(rw)
	}
}

func renderTokenError(rw http.ResponseWriter, message string) {
	response.RenderFieldErrors(rw, message, response.FieldErrors{"token": {message}})
}
