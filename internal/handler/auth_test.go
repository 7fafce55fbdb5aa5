package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impacttracker/impacttracker/internal/auth"
	"github.com/impacttracker/impacttracker/internal/config"
)

func postJSON(t *testing.T, h echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestResetPasswordWeakPasswordKeepsToken(t *testing.T) {
	store := auth.NewMemoryResetStore()
	token, err := store.Issue(context.Background(), 7, time.Hour)
	require.NoError(t, err)

	h := &AuthHandler{
		Cfg:    config.Config{PasswordMinLength: 12},
		Resets: store,
	}

	// A weak password is rejected by the strength policy before the token
	// is touched, so the same link keeps working on retry.
	rec := postJSON(t, h.ResetPassword, "/api/v1/auth/reset-password",
		`{"token":"`+token+`","new_password":"weak"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 12 characters")

	userID, ok, err := store.Consume(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, ok, "token must survive a rejected password")
	assert.Equal(t, uint64(7), userID)
}

func TestResetPasswordMissingToken(t *testing.T) {
	h := &AuthHandler{Cfg: config.Config{PasswordMinLength: 12}}

	rec := postJSON(t, h.ResetPassword, "/api/v1/auth/reset-password",
		`{"new_password":"Abcdefghijk1!"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "token required")
}
