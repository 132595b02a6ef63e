package requestreset

import (
	"io"
	"net/http"
	c "passreset/internal/core/domain/common"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/services"
	service "passreset/internal/core/services/request_reset"
	passwordreset "passreset/internal/http/handlers/password_reset"
	"passreset/internal/http/handlers/response"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
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
	Email string `json:"email"`
}

func (i *Input) FromJSON(r io.Reader) error {
	return passwordreset.DecodeJSON(r, i)
}

func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required, is.Email, validation.Length(0, 254)),
	)
}

// ServeHTTP answers the same way whether or not the email is known.
func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	input := Input{}
	if err := input.FromJSON(r.Body); err != nil {
		response.RenderInvalidRequest(rw)
		return
	}
	input.Email = strings.TrimSpace(input.Email)
	if err := input.Validate(); err != nil {
		response.RenderValidationError(rw, err)
		return
	}

	_, err := h.service.Run(r.Context(), service.Input{Email: c.NewEmail(input.Email)})
	if err != nil {
		response.RenderInternalError(rw)
		return
	}

	response.RenderOK(rw, passwordreset.MessageResetLinkSent, nil)
}
