package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wordstake_backend/internal/repository"
	"wordstake_backend/internal/service"
	"wordstake_backend/internal/ws"
)

// Handler bundles the services behind the HTTP API.
type Handler struct {
	Games        *service.GameService
	Deposits     *service.DepositService
	Words        *service.WordService
	Transactions *repository.TransactionRepository
	Hub          *ws.Hub
}

func NewHandler(games *service.GameService, deposits *service.DepositService, words *service.WordService, transactions *repository.TransactionRepository, hub *ws.Hub) *Handler {
	return &Handler{
		Games:        games,
		Deposits:     deposits,
		Words:        words,
		Transactions: transactions,
		Hub:          hub,
	}
}

// rejected writes the structured rejection shape for expected,
// user-correctable conditions.
func rejected(c *gin.Context, err error) {
	c.JSON(http.StatusOK, gin.H{"accepted": false, "reason": err.Error()})
}

// fail maps an error to either a rejection or an opaque 500.
func fail(c *gin.Context, err error) {
	if service.IsRejection(err) {
		rejected(c, err)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
