package executereset

import (
	"errors"
	"io"
	"net/http"
	"passreset/internal/core/domain/account"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/reset"
	"passreset/internal/core/services"
	service "passreset/internal/core/services/execute_reset"
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
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (i *Input) FromJSON(r io.Reader) error {
	return passwordreset.DecodeJSON(r, i)
}

func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Token, validation.Required, validation.Length(0, 256)),
		validation.Field(&i.NewPassword, validation.Required, validation.Length(0, 256)),
		validation.Field(&i.ConfirmPassword, validation.Required, validation.Length(0, 256)),
	)
}

type Result struct {
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

	result, err := h.service.Run(
		r.Context(),
		service.Input{
			Token:           reset.TokenValue(input.Token),
			NewPassword:     account.RawPassword(input.NewPassword),
			ConfirmPassword: account.RawPassword(input.ConfirmPassword),
		},
	)

	var policyErr *account.PasswordPolicyError
	switch {
	case err == nil:
		response.RenderOK(rw, passwordreset.MessagePasswordReset, Result{Email: string(result.Email)})
	case errors.Is(err, account.ErrPasswordMismatch):
		response.RenderFieldErrors(
			rw,
			passwordreset.MessagePasswordMismatch,
			response.FieldErrors{"confirm_password": {passwordreset.MessagePasswordMismatch}},
		)
	case errors.As(err, &policyErr):
		response.RenderFieldErrors(
			rw,
			response.MessageInvalidRequest,
			response.FieldErrors{"new_password": policyErr.Messages},
		)
	case reset.IsRejection(err):
		response.RenderFieldErrors(
			rw,
			passwordreset.MessageInvalidOrExpired,
			response.FieldErrors{"token": {passwordreset.MessageInvalidOrExpired}},
		)
	default:
		response.RenderInternalError(rw)
	}
}
