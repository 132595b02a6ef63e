package verifytoken

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"passreset/internal/core/domain/reset"
	service "passreset/internal/core/services/verify_token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubService struct {
	result service.Result
	err    error
	input  *service.Input
}

func (s *stubService) Run(ctx context.Context, input service.Input) (service.Result, error) {
	s.input = &input
	return s.result, s.err
}

func TestVerifyTokenHandler(t *testing.T) {
	cases := []struct {
		id             string
		body           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			id:             "valid",
			body:           `{"token": "abc"}`,
			expectedStatus: http.StatusOK,
			expectedBody: `{
				"status": true,
				"status_code": 200,
				"message": "Token is valid.",
				"data": {"valid": true, "email": "john@example.com"}
			}`,
		},
		{
			id:             "expired",
			body:           `{"token": "abc"}`,
			err:            reset.ErrTokenExpired,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"status": false,
				"status_code": 400,
				"message": "Token has expired.",
				"data": {"errors": {"token": ["Token has expired."]}}
			}`,
		},
		{
			id:             "not found",
			body:           `{"token": "abc"}`,
			err:            reset.ErrTokenNotFound,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"status": false,
				"status_code": 400,
				"message": "Invalid token.",
				"data": {"errors": {"token": ["Invalid token."]}}
			}`,
		},
		{
			id:             "already used",
			body:           `{"token": "abc"}`,
			err:            reset.ErrTokenAlreadyUsed,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"status": false,
				"status_code": 400,
				"message": "Invalid token.",
				"data": {"errors": {"token": ["Invalid token."]}}
			}`,
		},
		{
			id:             "superseded",
			body:           `{"token": "abc"}`,
			err:            reset.ErrTokenSuperseded,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"status": false,
				"status_code": 400,
				"message": "Invalid token.",
				"data": {"errors": {"token": ["Invalid token."]}}
			}`,
		},
		{
			id:             "missing token",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"status": false,
				"status_code": 400,
				"message": "Invalid request.",
				"data": {"errors": {"token": ["cannot be blank"]}}
			}`,
		},
		{
			id:             "storage failure",
			body:           `{"token": "abc"}`,
			err:            errors.New("connection reset"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status": false, "status_code": 500, "message": "Internal error.", "data": {}}`,
		},
	}

	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			stub := &stubService{
				result: service.Result{Email: "john@example.com"},
				err:    testcase.err,
			}
			handler := New(stub)
			req := httptest.NewRequest(http.MethodPost, "/auth/verify-reset-token", strings.NewReader(testcase.body))
			rw := httptest.NewRecorder()

			handler.ServeHTTP(rw, req)

			assert.Equal(t, testcase.expectedStatus, rw.Code)
			assert.JSONEq(t, testcase.expectedBody, rw.Body.String())
		})
	}
}

func TestTokenIsPassedThrough(t *testing.T) {
	stub := &stubService{}
	req := httptest.NewRequest(http.MethodPost, "/auth/verify-reset-token", strings.NewReader(`{"token": "abc"}`))

	New(stub).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, reset.TokenValue("abc"), stub.input.Token)
}
