package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogoutReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(WithUserID(req.Context(), 1))
	rec := httptest.NewRecorder()

	LogoutHandler()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
}

func TestDeleteAccountRequiresUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/auth/account", nil)
	rec := httptest.NewRecorder()

	DeleteAccountHandler(nil)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
