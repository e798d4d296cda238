package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeQuotaExceeded, http.StatusTooManyRequests},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		err := E(tc.code, "Op", "msg", nil)
		assert.Equal(t, tc.want, HTTPStatus(err), "code %s", tc.code)
	}
}

func TestHTTPStatusFallbacks(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("repo: %w", ErrNotFound)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("driver broke")
	err := E(CodeUnavailable, "Svc.Do", "upstream failed", inner)

	assert.True(t, errors.Is(err, inner))
	assert.True(t, IsCode(err, CodeUnavailable))
	assert.False(t, IsCode(err, CodeTimeout))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.True(t, IsCode(wrapped, CodeUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(wrapped))
}

func TestAppErrorMessage(t *testing.T) {
	assert.Equal(t, "Svc.Do: upstream failed: boom",
		E(CodeInternal, "Svc.Do", "upstream failed", errors.New("boom")).Error())
	assert.Equal(t, "Svc.Do: upstream failed",
		E(CodeInternal, "Svc.Do", "upstream failed", nil).Error())
	assert.Equal(t, "upstream failed",
		E(CodeInternal, "", "upstream failed", nil).Error())
}
