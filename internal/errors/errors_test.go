package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorMatching(t *testing.T) {
	notFound := fmt.Errorf("[tasks Get] %w", &apierrors.HTTPError{StatusCode: http.StatusNotFound})
	require.True(t, apierrors.Is(notFound, apierrors.ErrNotFound))
	require.Equal(t, http.StatusNotFound, apierrors.StatusCode(notFound))

	conflict := &apierrors.HTTPError{StatusCode: http.StatusConflict, Body: []byte(`{"detail":"exists"}`)}
	require.False(t, apierrors.Is(conflict, apierrors.ErrNotFound))
	require.Contains(t, conflict.Error(), `{"detail":"exists"}`)

	require.Equal(t, 0, apierrors.StatusCode(apierrors.ErrNetwork))
}

func TestIsAuthStatus(t *testing.T) {
	require.True(t, apierrors.IsAuthStatus(http.StatusUnauthorized))
	require.True(t, apierrors.IsAuthStatus(http.StatusForbidden))
	require.False(t, apierrors.IsAuthStatus(http.StatusBadRequest))
}

func TestWrapf(t *testing.T) {
	require.Nil(t, apierrors.Wrapf(nil, "ignored"))
	err := apierrors.Wrapf(apierrors.ErrAuthExpired, "refresh for %s", "alice")
	require.EqualError(t, err, "refresh for alice: session expired")
	require.True(t, apierrors.Is(err, apierrors.ErrAuthExpired))
}

func TestHTTPErrorDetail(t *testing.T) {
	cases := map[string]string{
		`{"detail":"Token is invalid or expired"}`:                "Token is invalid or expired",
		`{"error":"Estado inválido"}`:                             "Estado inválido",
		`{"non_field_errors":["Email o contraseña incorrectos"]}`: "Email o contraseña incorrectos",
		`<html>bad gateway</html>`:                                "",
		`{}`:                                                      "",
	}
	for body, want := range cases {
		e := &apierrors.HTTPError{StatusCode: http.StatusBadRequest, Body: []byte(body)}
		require.Equal(t, want, e.Detail(), body)
	}
}
