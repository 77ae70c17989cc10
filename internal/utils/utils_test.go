package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMinorUnits(t *testing.T) {
	cases := map[int64]string{
		299:  "2.99",
		50:   "0.50",
		0:    "0.00",
		1000: "10.00",
		-150: "-1.50",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMinorUnits(in), "input %d", in)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "alice", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	SetJWTSecret("another-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	refresh, err := GenerateRefreshToken(userID, 1)
	require.NoError(t, err)

	subject, err := ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), subject)

	_, err = ValidateJWT(refresh)
	assert.Error(t, err)
}

func TestValidateFileHash(t *testing.T) {
	// sha256("hello")
	assert.True(t, ValidateFileHash([]byte("hello"), "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"))
	assert.False(t, ValidateFileHash([]byte("hello!"), "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"))
}

func TestGetPaginationParamsClampsInput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=-3&limit=5000&order=sideways", nil)

	params := GetPaginationParams(c)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, defaultPageSize, params.Limit)
	assert.Equal(t, "desc", params.Order)
}

func TestWantsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		headers map[string]string
		want    bool
	}{
		{"json body", map[string]string{"Content-Type": "application/json; charset=utf-8"}, true},
		{"xhr", map[string]string{"X-Requested-With": "XMLHttpRequest"}, true},
		{"form", map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, WantsJSON(c))
		})
	}
}

func TestOKResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	OKResponse(c, gin.H{"items": 2, "ok": "ignored"})
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.EqualValues(t, 2, body["items"])

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	NotOKResponse(c, http.StatusNotFound, "Product not found")
	assert.Equal(t, http.StatusNotFound, w.Code)

	body = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "Product not found", body["error"])
	assert.NotContains(t, body, "success")
}
