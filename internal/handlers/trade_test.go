package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"brokerage/internal/engine"
	"brokerage/internal/middleware"
	"brokerage/types"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	buyErr  error
	sellErr error
	view    *types.PortfolioView
	history []types.Transaction
	err     error

	gotSymbol string
	gotShares int64
	gotUser   int64
}

func (s *stubEngine) Buy(_ context.Context, userID int64, symbol string, shares int64) error {
	s.gotUser, s.gotSymbol, s.gotShares = userID, symbol, shares
	return s.buyErr
}

func (s *stubEngine) Sell(_ context.Context, userID int64, symbol string, shares int64) error {
	s.gotUser, s.gotSymbol, s.gotShares = userID, symbol, shares
	return s.sellErr
}

func (s *stubEngine) Valuate(_ context.Context, userID int64) (*types.PortfolioView, error) {
	s.gotUser = userID
	return s.view, s.err
}

func (s *stubEngine) History(_ context.Context, userID int64) ([]types.Transaction, error) {
	s.gotUser = userID
	return s.history, s.err
}

func tradeRouter(eng *stubEngine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTradeHandler(eng, zerolog.Nop())
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.UserIDKey, int64(7)) })
	r.POST("/buy", h.Buy)
	r.POST("/sell", h.Sell)
	r.GET("/", h.Portfolio)
	r.GET("/history", h.History)
	return r
}

func TestBuyHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		buyErr     error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "successful buy",
			body:       `{"symbol":"AAPL","shares":10}`,
			wantStatus: http.StatusOK,
			wantBody:   "Bought!",
		},
		{
			name:       "missing shares",
			body:       `{"symbol":"AAPL"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "zero shares rejected by binding",
			body:       `{"symbol":"AAPL","shares":0}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "insufficient funds",
			body:       `{"symbol":"AAPL","shares":10}`,
			buyErr:     fmt.Errorf("cost too high: %w", engine.InsufficientFundsErr),
			wantStatus: http.StatusBadRequest,
			wantBody:   "Insufficient funds",
		},
		{
			name:       "unknown symbol",
			body:       `{"symbol":"ZZZZ","shares":1}`,
			buyErr:     fmt.Errorf("nope: %w", engine.UnknownSymbolErr),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "store down",
			body:       `{"symbol":"AAPL","shares":1}`,
			buyErr:     fmt.Errorf("boom: %w", engine.StoreUnavailableErr),
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := &stubEngine{buyErr: tc.buyErr}
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/buy", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			tradeRouter(eng).ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantBody != "" {
				assert.Contains(t, w.Body.String(), tc.wantBody)
			}
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, int64(7), eng.gotUser)
				assert.Equal(t, "AAPL", eng.gotSymbol)
				assert.Equal(t, int64(10), eng.gotShares)
			}
		})
	}
}

func TestSellHandlerReportsAvailableShares(t *testing.T) {
	eng := &stubEngine{sellErr: &engine.InsufficientSharesErr{Symbol: "AAPL", Available: 10}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sell", strings.NewReader(`{"symbol":"AAPL","shares":15}`))
	req.Header.Set("Content-Type", "application/json")
	tradeRouter(eng).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"available":10`)
}

func TestPortfolioHandler(t *testing.T) {
	eng := &stubEngine{view: &types.PortfolioView{
		Cash: decimal.RequireFromString("8500.00"),
		Lines: []types.HoldingLine{
			{Symbol: "AAPL", Name: "Apple Inc", Shares: 10, Price: decimal.RequireFromString("150.00"), Total: decimal.RequireFromString("1500.00")},
		},
		GrandTotal: decimal.RequireFromString("10000.00"),
	}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	tradeRouter(eng).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"symbol":"AAPL"`)
	assert.Contains(t, w.Body.String(), `"grandTotal":"10000"`)
	assert.Equal(t, int64(7), eng.gotUser)
}

func TestHistoryHandlerEmptyLogIsNotAnError(t *testing.T) {
	eng := &stubEngine{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	tradeRouter(eng).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}
