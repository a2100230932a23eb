package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Unauthorized("no"), http.StatusUnauthorized},
		{ErrTokenExpired, http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{TooManyRequests("slow down"), http.StatusTooManyRequests},
		{Unavailable("redis down"), http.StatusServiceUnavailable},
		{Internal("boom", errors.New("db down")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestStatus_WrappedWithFmt(t *testing.T) {
	err := fmt.Errorf("apply: %w", Conflict("already applied"))
	require.True(t, errors.Is(err, ErrConflict))
	require.Equal(t, http.StatusConflict, Status(err))
	require.Equal(t, "already applied", Message(err))
}

func TestMessage_HidesInternalCause(t *testing.T) {
	err := Internal("failed to save program", errors.New("connection refused"))
	require.Equal(t, "failed to save program", Message(err))
	require.Equal(t, ErrInternal.Error(), Message(errors.New("raw driver error")))
	require.True(t, errors.Is(ErrTokenExpired, ErrUnauthorized))
}
