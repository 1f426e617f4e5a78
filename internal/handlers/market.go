package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"brokerage/internal/quote"
	"brokerage/types"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type quoteSource interface {
	Lookup(ctx context.Context, symbol string) (*types.Quote, error)
}

type priceRecorder interface {
	RecordPrice(ctx context.Context, q *types.Quote, quotedAt time.Time) error
}

type MarketHandler struct {
	quotes quoteSource
	prices priceRecorder
	log    zerolog.Logger
}

func NewMarketHandler(quotes quoteSource, prices priceRecorder, log zerolog.Logger) *MarketHandler {
	return &MarketHandler{quotes: quotes, prices: prices, log: log}
}

// Quote returns the current price for a symbol and persists the
// snapshot for stale-price fallback.
func (h *MarketHandler) Quote(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Symbol required"})
		return
	}

	q, err := h.quotes.Lookup(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, quote.ErrSymbolNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stock symbol does not exist"})
			return
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("quote lookup failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to fetch stock data"})
		return
	}

	if err := h.prices.RecordPrice(c.Request.Context(), q, time.Now()); err != nil {
		h.log.Warn().Err(err).Str("symbol", q.Symbol).Msg("failed to record price snapshot")
	}

	c.JSON(http.StatusOK, q)
}
