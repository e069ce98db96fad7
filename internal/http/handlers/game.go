package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wordstake_backend/internal/domain"
	"wordstake_backend/internal/http/middleware"
	"wordstake_backend/internal/service"
)

type createGameRequest struct {
	DisplayName string `json:"display_name"`
	BetAmount   int64  `json:"bet_amount" binding:"required"`
	Currency    string `json:"currency"`
}

// CreateOrJoin matches the caller into an open game with the same stake, or
// opens a new one.
func (h *Handler) CreateOrJoin(c *gin.Context) {
	wallet, ok := middleware.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	currency := domain.Currency(req.Currency)
	if req.Currency == "" {
		currency = domain.CurrencySOL
	}

	g, err := h.Games.CreateOrJoin(c.Request.Context(), wallet, req.DisplayName, req.BetAmount, currency)
	if err != nil {
		if service.IsRejection(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"game": g})
}

// GetGame returns a snapshot of one game.
func (h *Handler) GetGame(c *gin.Context) {
	g, err := h.Games.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == service.ErrUnknownGameOrPlayer {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": g})
}

type depositRequest struct {
	TxSignature string `json:"tx_signature" binding:"required"`
	Currency    string `json:"currency"`
}

// VerifyDeposit validates a submitted stake transaction and credits the
// escrow when it checks out.
func (h *Handler) VerifyDeposit(c *gin.Context) {
	wallet, ok := middleware.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	currency := domain.Currency(req.Currency)
	if req.Currency == "" {
		currency = domain.CurrencySOL
	}

	res, err := h.Deposits.VerifyDeposit(c.Request.Context(), c.Param("id"), wallet, req.TxSignature, currency)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accepted":        true,
		"credited_amount": res.CreditedAmount,
		"escrow_status":   res.EscrowStatus,
	})
}

type wordRequest struct {
	Word string `json:"word" binding:"required"`
}

// SubmitWord scores a word against the live round.
func (h *Handler) SubmitWord(c *gin.Context) {
	wallet, ok := middleware.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req wordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.Words.SubmitWord(c.Request.Context(), c.Param("id"), wallet, req.Word)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accepted":    true,
		"word":        res.Word,
		"points":      res.Points,
		"total_score": res.TotalScore,
	})
}

// Forfeit concedes a live round; the opponent takes the pot.
func (h *Handler) Forfeit(c *gin.Context) {
	wallet, ok := middleware.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	g, err := h.Games.Forfeit(c.Request.Context(), c.Param("id"), wallet)
	if err != nil {
		if service.IsRejection(err) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": g})
}

// Cancel withdraws a game that has not started, refunding any credited
// deposit.
func (h *Handler) Cancel(c *gin.Context) {
	wallet, ok := middleware.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	g, err := h.Games.Cancel(c.Request.Context(), c.Param("id"), wallet)
	if err != nil {
		if service.IsRejection(err) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": g})
}

// MyTransactions returns the caller's recent money movements.
func (h *Handler) MyTransactions(c *gin.Context) {
	wallet, ok := middleware.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	txs, err := h.Transactions.GetByPlayer(c.Request.Context(), wallet, 100)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// GameTransactions returns the audit trail of one game.
func (h *Handler) GameTransactions(c *gin.Context) {
	txs, err := h.Transactions.GetByGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
