package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/gatekeeperhq/gatekeeper/models"
	"github.com/gatekeeperhq/gatekeeper/services"
)

type TokenController struct {
	Service *services.TokenService
}

// VerifyToken handles POST /verify-token. Unknown, revoked and malformed
// tokens all produce the same 401 response.
func (t TokenController) VerifyToken(c *gin.Context) {
	type VerifyRequest struct {
		Token string `json:"token"`
	}

	var request VerifyRequest
	err := c.BindJSON(&request)
	if err != nil {
		slog.Warn("Error binding JSON", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	identity, err := t.Service.Verify(request.Token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		slog.Error("Error verifying token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":   identity.UserID,
		"userName": identity.Username,
		"roles":    identity.Roles,
		"profile":  identity.Profile,
	})
}

// CreateToken handles POST /admin/tokens.
func (t TokenController) CreateToken(c *gin.Context) {
	type TokenCreateRequest struct {
		UserID   string                 `json:"userId"`
		Username string                 `json:"username"`
		Email    string                 `json:"email"`
		Roles    []string               `json:"roles"`
		Profile  map[string]interface{} `json:"profile"`
	}

	var request TokenCreateRequest
	err := c.BindJSON(&request)
	if err != nil {
		slog.Warn("Error binding JSON", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error binding JSON"})
		return
	}

	token, err := t.Service.Issue(services.IssueRequest{
		UserID:   request.UserID,
		Username: request.Username,
		Email:    request.Email,
		Roles:    request.Roles,
		Profile:  request.Profile,
	})
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": validationErr.Error(),
				"field": validationErr.Field,
			})
			return
		}
		slog.Error("Error issuing token", "userId", request.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// RevokeToken handles DELETE /admin/tokens/:token.
func (t TokenController) RevokeToken(c *gin.Context) {
	value := c.Param("token")

	err := t.Service.Revoke(value)
	if err != nil {
		var notFoundErr *services.NotFoundError
		if errors.As(err, &notFoundErr) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
			return
		}
		slog.Error("Error revoking token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// TokenUsage handles GET /admin/tokens/usage.
func (t TokenController) TokenUsage(c *gin.Context) {
	usage, err := t.Service.Usage(services.MaxUsageRecords)
	if err != nil {
		slog.Error("Error fetching token usage", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return
	}

	records := lo.Map(usage, func(u models.TokenUsage, i int) interface{} {
		return u.MapToJsonStruct()
	})
	c.JSON(http.StatusOK, records)
}
