package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryCodeAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", nil), CodeValidation, http.StatusBadRequest},
		{NewNotFound("ticket", nil), CodeNotFound, http.StatusNotFound},
		{NewUnauthorized("no"), CodeUnauthorized, http.StatusUnauthorized},
		{NewForbidden("no"), CodeForbidden, http.StatusForbidden},
		{NewConflict("dup", nil), CodeConflict, http.StatusConflict},
		{NewInternalError(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		domainErr := ToDomainError(tc.err)
		require.NotNil(t, domainErr)
		assert.Equal(t, tc.code, domainErr.Code)
		assert.Equal(t, tc.status, domainErr.HTTPStatus)
		assert.True(t, HasCode(tc.err, tc.code))
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFound("user", map[string]any{"id": 7})
	assert.Equal(t, "user not found", err.Error())
	assert.Equal(t, 7, ToDomainError(err).Details["id"])
}

func TestToDomainError_WrapsUnknownErrors(t *testing.T) {
	cause := errors.New("disk full")
	domainErr := ToDomainError(cause)
	assert.Equal(t, CodeInternal, domainErr.Code)
	assert.ErrorIs(t, domainErr, cause)
	assert.Contains(t, domainErr.Error(), "disk full")
}

func TestToDomainError_FindsWrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("assign: %w", NewConflict("already assigned", nil))
	assert.True(t, HasCode(wrapped, CodeConflict))
	assert.Equal(t, CodeConflict, ToDomainError(wrapped).Code)
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
	assert.False(t, HasCode(nil, CodeInternal))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}
