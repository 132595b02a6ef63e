package healthz

import (
	"context"
	"net/http"
	"passreset/internal/http/handlers/response"
	"time"
)

type Check func(ctx context.Context) error

type Handler struct {
	checks map[string]Check
}

// New takes named dependency checks; any failing check turns the answer
// into 503.
func New(checks map[string]Check) *Handler {
	return &Handler{checks: checks}
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		response.Render(
			rw,
			response.Envelope{Message: "Unhealthy.", Data: map[string]interface{}{"failed": failed}},
			http.StatusServiceUnavailable,
		)
		return
	}
	response.RenderOK(rw, "OK.", nil)
}
