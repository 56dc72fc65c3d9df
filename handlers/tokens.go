package handlers

import (
	"net/http"

	"deployhub/models"
	"deployhub/services/usertoken"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	Service usertoken.UserTokenService
}

func NewTokenHandler(svc usertoken.UserTokenService) *TokenHandler {
	return &TokenHandler{Service: svc}
}

func (h *TokenHandler) RegisterTokenHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	ut, err := h.Service.Register(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ut)
}

func (h *TokenHandler) ListTokensHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ut, err := h.Service.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ut)
}

func (h *TokenHandler) RemoveTokenHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	removed, err := h.Service.Remove(c.Request.Context(), userID, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	if removed == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not registered"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TokenHandler) RemoveAllTokensHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.Service.RemoveAll(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
