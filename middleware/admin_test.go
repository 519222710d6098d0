package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func protectedRouter(adminKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AdminKeyAuth(adminKey), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func request(r *gin.Engine, header string, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminKeyAuthAcceptsConfiguredKey(t *testing.T) {
	r := protectedRouter("secret-key")

	w := request(r, AdminKeyHeader, "secret-key")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminKeyAuthRejectsMissingOrWrongKey(t *testing.T) {
	r := protectedRouter("secret-key")

	tests := []struct {
		name string
		key  string
		send bool
	}{
		{name: "missing_header", send: false},
		{name: "empty_key", key: "", send: true},
		{name: "near_miss", key: "secret-ke", send: true},
		{name: "near_miss_suffix", key: "secret-keyy", send: true},
		{name: "wrong_case", key: "SECRET-KEY", send: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.send {
				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				req.Header.Set(AdminKeyHeader, tt.key)
				rec := httptest.NewRecorder()
				r.ServeHTTP(rec, req)
				w = rec
			} else {
				w = request(r, "", "")
			}
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "Invalid admin API key")
		})
	}
}

func TestAdminKeyAuthRejectsWhenUnconfigured(t *testing.T) {
	// an unset admin key must not open the gate to empty-key requests
	r := protectedRouter("")

	w := request(r, AdminKeyHeader, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(r, AdminKeyHeader, "anything")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
