package handlers

import (
	"context"
	"errors"
	"net/http"

	"brokerage/internal/engine"
	"brokerage/internal/middleware"
	"brokerage/types"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type tradingEngine interface {
	Buy(ctx context.Context, userID int64, symbol string, shares int64) error
	Sell(ctx context.Context, userID int64, symbol string, shares int64) error
	Valuate(ctx context.Context, userID int64) (*types.PortfolioView, error)
	History(ctx context.Context, userID int64) ([]types.Transaction, error)
}

type TradeHandler struct {
	engine tradingEngine
	log    zerolog.Logger
}

func NewTradeHandler(eng tradingEngine, log zerolog.Logger) *TradeHandler {
	return &TradeHandler{engine: eng, log: log}
}

type orderInput struct {
	Symbol string `json:"symbol" binding:"required"`
	Shares int64  `json:"shares" binding:"required,min=1"`
}

func (h *TradeHandler) Buy(c *gin.Context) {
	var input orderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.Buy(c.Request.Context(), userID(c), input.Symbol, input.Shares); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bought!"})
}

func (h *TradeHandler) Sell(c *gin.Context) {
	var input orderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.Sell(c.Request.Context(), userID(c), input.Symbol, input.Shares); err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sold!"})
}

func (h *TradeHandler) Portfolio(c *gin.Context) {
	view, err := h.engine.Valuate(c.Request.Context(), userID(c))
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TradeHandler) History(c *gin.Context) {
	txns, err := h.engine.History(c.Request.Context(), userID(c))
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	if txns == nil {
		txns = []types.Transaction{}
	}
	c.JSON(http.StatusOK, txns)
}

func userID(c *gin.Context) int64 {
	return c.MustGet(middleware.UserIDKey).(int64)
}

func (h *TradeHandler) writeEngineError(c *gin.Context, err error) {
	var sharesErr *engine.InsufficientSharesErr
	switch {
	case errors.As(err, &sharesErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Insufficient shares",
			"available": sharesErr.Available,
		})
	case errors.Is(err, engine.InsufficientFundsErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
	case errors.Is(err, engine.UnknownSymbolErr):
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock symbol does not exist"})
	case errors.Is(err, engine.InvalidInputErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		h.log.Error().Err(err).Msg("trade request failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable"})
	}
}
