package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wordstake_backend/internal/logger"
	"wordstake_backend/internal/service"
	"wordstake_backend/internal/solana"
)

// Auth exchanges a signed wallet-ownership proof for a session token. The
// client signs a timestamped message with the wallet key; no server-issued
// challenge round-trip is needed.
func (h *Handler) Auth(c *gin.Context) {
	var proof solana.LoginProof
	if err := c.ShouldBindJSON(&proof); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := solana.VerifyLoginProof(proof); err != nil {
		logger.Warn("login proof rejected", "address", proof.Address, "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	token, err := service.GenerateJWT(proof.Address)
	if err != nil {
		logger.Error("token generation failed", "address", proof.Address, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "address": proof.Address})
}
