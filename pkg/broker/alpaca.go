package broker

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/google/uuid"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultBaseURL = "https://paper-api.alpaca.markets"

type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string // defaults to DefaultBaseURL (paper trading)
}

type Client struct {
	config  Config
	trading *alpaca.Client
	assets  *http.Client
	logger  *zap.Logger
}

func NewClient(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	trading := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    config.APIKey,
		APISecret: config.APISecret,
		BaseURL:   config.BaseURL,
	})

	return &Client{
		config:  config,
		trading: trading,
		assets:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

// Positions returns all broker-reported holdings.
func (c *Client) Positions() ([]Position, error) {
	positions, err := c.trading.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	out := make([]Position, 0, len(positions))
	for _, p := range positions {
		out = append(out, Position{Symbol: p.Symbol, Qty: p.Qty})
	}
	return out, nil
}

// OpenOrders returns all currently open orders.
func (c *Client) OpenOrders() ([]Order, error) {
	orders, err := c.trading.GetOrders(alpaca.GetOrdersRequest{
		Status: "open",
		Limit:  500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, Order{Symbol: o.Symbol, Side: Side(o.Side)})
	}
	return out, nil
}

// Account retrieves key account information.
func (c *Client) Account() (*AccountInfo, error) {
	account, err := c.trading.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &AccountInfo{
		Status:         string(account.Status),
		Cash:           account.Cash.StringFixed(2),
		BuyingPower:    account.BuyingPower.StringFixed(2),
		PortfolioValue: account.PortfolioValue.StringFixed(2),
	}, nil
}

// SubmitOrder places one order. Every submission carries a fresh client
// order ID so repeats are distinguishable in the broker blotter.
func (c *Client) SubmitOrder(req OrderRequest) error {
	qty := req.Qty
	placeReq := alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Qty:           &qty,
		Side:          alpaca.Side(req.Side),
		Type:          alpaca.OrderType(req.Type),
		TimeInForce:   alpaca.TimeInForce(req.TimeInForce),
		LimitPrice:    req.LimitPrice,
		TrailPercent:  req.TrailPercent,
		ExtendedHours: req.ExtendedHours,
		ClientOrderID: uuid.NewString(),
	}

	if c.logger.Core().Enabled(zapcore.DebugLevel) {
		if payload, err := json.Marshal(req); err == nil {
			c.logger.Debug("submitting order", zap.ByteString("payload", pretty.Pretty(payload)))
		}
	}

	order, err := c.trading.PlaceOrder(placeReq)
	if err != nil {
		return fmt.Errorf("failed to place %s %s order for %s: %w", req.Side, req.Type, req.Symbol, err)
	}

	c.logger.Debug("order accepted",
		zap.String("symbol", order.Symbol),
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)))
	return nil
}
