package httputil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/kds/internal/errors"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/kds/ticket", nil)
	return c, w
}

func TestHandleErrorGin(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "invalid input carries detail",
			err:          apperrors.Wrap(apperrors.ErrInvalidInput, "malformed request"),
			expectedCode: http.StatusUnprocessableEntity,
			expectedBody: `{"error":"invalid_input","message":"malformed request: invalid input"}`,
		},
		{
			name:         "unauthorized hides detail",
			err:          fmt.Errorf("signature mismatch: %w", apperrors.ErrUnauthorized),
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"error":"unauthorized","message":"Invalid request"}`,
		},
		{
			name:         "forbidden",
			err:          apperrors.Wrap(apperrors.ErrForbidden, "key export is not permitted"),
			expectedCode: http.StatusForbidden,
			expectedBody: `{"error":"forbidden","message":"You don't have permission to access this resource"}`,
		},
		{
			name:         "not found",
			err:          apperrors.Wrap(apperrors.ErrNotFound, "shared key not found"),
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"not_found","message":"The requested resource was not found"}`,
		},
		{
			name:         "configuration errors are internal",
			err:          apperrors.Wrap(apperrors.ErrConfiguration, "invalid master key"),
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"internal_error","message":"An internal error occurred"}`,
		},
		{
			name:         "unclassified errors are internal",
			err:          errors.New("stored key record failed integrity check"),
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"internal_error","message":"An internal error occurred"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()

			HandleErrorGin(c, tt.err, nil)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestHandleErrorGin_NilError(t *testing.T) {
	c, w := newTestContext()
	HandleErrorGin(c, nil, nil)
	assert.Empty(t, w.Body.String())
}

func TestHandleRateLimitedGin(t *testing.T) {
	for _, tt := range []struct {
		retryAfter int
		header     string
	}{{0, "1"}, {-3, "1"}, {7, "7"}} {
		c, w := newTestContext()

		HandleRateLimitedGin(c, tt.retryAfter)

		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, tt.header, w.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"error":"rate_limit_exceeded","message":"Too many requests, retry later"}`, w.Body.String())
	}
}

func TestHandleBadRequestGin(t *testing.T) {
	c, w := newTestContext()
	HandleBadRequestGin(c, errors.New("unexpected EOF"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"bad_request","message":"unexpected EOF"}`, w.Body.String())
}

func TestHandleValidationErrorGin(t *testing.T) {
	c, w := newTestContext()
	HandleValidationErrorGin(c, errors.New("owner: cannot be blank."), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error":"validation_error","message":"owner: cannot be blank."}`, w.Body.String())
}
