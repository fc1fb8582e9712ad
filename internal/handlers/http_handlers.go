package handlers

import (
	"context"
	"errors"
	"net/http"

	"wallet_api/internal/models"
	"wallet_api/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=http_handlers.go -destination=../../test/mock_wallet_service.go -package=test WalletService

type WalletService interface {
	CreateWallet(ctx context.Context) (models.Wallet, error)
	GetWallet(ctx context.Context, walletID uuid.UUID) (models.Wallet, error)
	ApplyOperation(ctx context.Context, walletID uuid.UUID, opType models.OperationType, amount decimal.Decimal) (models.Wallet, error)
}

type WalletHTTPHandler struct {
	service WalletService
}

func NewWalletHTTPHandler(service WalletService) *WalletHTTPHandler {
	return &WalletHTTPHandler{service: service}
}

func (h *WalletHTTPHandler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/wallets", h.HandleCreateWallet)
		v1.GET("/wallets/:wallet_id", h.HandleGetWallet)
		v1.POST("/wallets/:wallet_id/operation", h.HandleWalletOperation)
	}
}

func (h *WalletHTTPHandler) HandleCreateWallet(c *gin.Context) {
	w, err := h.service.CreateWallet(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, models.NewWalletResponse(w))
}

func (h *WalletHTTPHandler) HandleGetWallet(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("wallet_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet_id"})
		return
	}
	w, err := h.service.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, repository.ErrWalletNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.NewWalletResponse(w))
}

func (h *WalletHTTPHandler) HandleWalletOperation(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("wallet_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet_id"})
		return
	}

	var req models.OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	w, err := h.service.ApplyOperation(c.Request.Context(), walletID, req.OperationType, req.Amount)
	if err != nil {
		status := http.StatusServiceUnavailable
		switch {
		case errors.Is(err, repository.ErrInvalidAmount),
			errors.Is(err, repository.ErrInvalidOperationType):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, repository.ErrWalletNotFound):
			status = http.StatusNotFound
		case errors.Is(err, repository.ErrInsufficientFunds):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, models.NewOperationResponse(w, req.Amount))
}
