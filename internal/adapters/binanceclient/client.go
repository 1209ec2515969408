// Package binanceclient implements ports.ExchangeClient against Binance
// USDT-M futures using the go-binance library.
package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"

	"cryptoScalpBot/internal/domain"
	"cryptoScalpBot/internal/ports"
)

const (
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// Config holds the Binance adapter settings.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// Client implements ports.ExchangeClient.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
}

// New creates a Binance futures client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty, only public endpoints will work")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
	} else {
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{
		"baseURL": client.BaseURL,
		"testnet": cfg.UseTestnet,
	})

	return &Client{futuresClient: client, logger: cfg.Logger}, nil
}

// handleError translates Binance API errors into the standard ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003:
			mappedErr = ports.ErrRateLimited
		case -1021:
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015:
			mappedErr = ports.ErrAuthenticationFailed
		case -2010, -2022:
			mappedErr = ports.ErrOrderPlacementFailed
		case -2011:
			mappedErr = ports.ErrOrderCancelFailed
		case -2013:
			mappedErr = ports.ErrOrderNotFound
		case -2019, -3005, -3041, -4047:
			mappedErr = ports.ErrInsufficientFunds
		case -4003, -4014, -4015:
			mappedErr = ports.ErrInvalidRequest
		case -4044:
			mappedErr = ports.ErrPositionNotFound
		default:
			if apiErr.Code <= -1100 && apiErr.Code >= -1199 {
				mappedErr = ports.ErrInvalidRequest
			} else {
				mappedErr = ports.ErrUnknown
			}
		}
		c.logger.Error(ctx, err, operation+" failed with API error", fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"),
		strings.Contains(err.Error(), "use of closed network connection"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, operation+" failed", fields)
	return finalErr
}

// Ping checks connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.futuresClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, err, op)
	}
	return nil
}

// GetKlines retrieves historical candlestick data, oldest first.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error) {
	op := "GetKlines"
	raw, err := c.futuresClient.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	klines := make([]*domain.Kline, 0, len(raw))
	for _, bk := range raw {
		dk, err := translateKline(bk, symbol, interval)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("translating kline: %w", err), op)
		}
		klines = append(klines, dk)
	}
	return klines, nil
}

// GetLastPrice retrieves the last traded price for a symbol.
func (c *Client) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	op := "GetLastPrice"
	prices, err := c.futuresClient.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	if len(prices) == 0 {
		return 0, c.handleError(ctx, fmt.Errorf("no price data for %s: %w", symbol, ports.ErrPriceUnread), op)
	}
	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, c.handleError(ctx, fmt.Errorf("parsing price %q: %w", prices[0].Price, err), op)
	}
	return price, nil
}

// GetAccountBalance retrieves the wallet balance for an asset.
func (c *Client) GetAccountBalance(ctx context.Context, asset string) (float64, error) {
	op := "GetAccountBalance"
	account, err := c.futuresClient.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}

	for _, bal := range account.Assets {
		if bal.Asset != asset {
			continue
		}
		balance, err := strconv.ParseFloat(bal.WalletBalance, 64)
		if err != nil {
			return 0, c.handleError(ctx, fmt.Errorf("parsing balance %q for %s: %w", bal.WalletBalance, asset, err), op)
		}
		return balance, nil
	}
	return 0, c.handleError(ctx, fmt.Errorf("asset %s not found in account", asset), op)
}

// SetLeverage sets the leverage for a symbol.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	op := "SetLeverage"
	if _, err := c.futuresClient.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx); err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Info(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "leverage": leverage})
	return nil
}

// PlaceBracketOrder submits a market entry followed by a close-position stop
// and take-profit. If either protective order fails the entry is unwound with
// an immediate market close, so a position never stays live without its stop.
func (c *Client) PlaceBracketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity, stopPrice, takeProfitPrice string) (*ports.BracketOrderResponse, error) {
	op := "PlaceBracketOrder"
	exitSide := futures.SideTypeSell
	if side == domain.Sell {
		exitSide = futures.SideTypeBuy
	}

	entry, err := c.futuresClient.NewCreateOrderService().
		Symbol(symbol).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeMarket).
		Quantity(quantity).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op+" entry")
	}
	avgEntry, _ := strconv.ParseFloat(entry.AvgPrice, 64)

	slOrder, err := c.futuresClient.NewCreateOrderService().
		Symbol(symbol).
		Side(exitSide).
		Type(futures.OrderTypeStopMarket).
		StopPrice(stopPrice).
		ClosePosition(true).
		Do(ctx)
	if err != nil {
		c.logger.Warn(ctx, op+": stop placement failed, unwinding entry", map[string]interface{}{"symbol": symbol})
		c.emergencyClose(ctx, symbol, exitSide, quantity)
		return nil, c.handleError(ctx, err, op+" stop-loss")
	}

	tpOrder, err := c.futuresClient.NewCreateOrderService().
		Symbol(symbol).
		Side(exitSide).
		Type(futures.OrderTypeTakeProfitMarket).
		StopPrice(takeProfitPrice).
		ClosePosition(true).
		Do(ctx)
	if err != nil {
		c.logger.Warn(ctx, op+": take-profit placement failed, unwinding entry", map[string]interface{}{"symbol": symbol})
		c.cancelOrderWarn(ctx, symbol, slOrder.OrderID)
		c.emergencyClose(ctx, symbol, exitSide, quantity)
		return nil, c.handleError(ctx, err, op+" take-profit")
	}

	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol":       symbol,
		"side":         side,
		"quantity":     quantity,
		"entryOrderID": entry.OrderID,
		"stopOrderID":  slOrder.OrderID,
		"tpOrderID":    tpOrder.OrderID,
	})
	return &ports.BracketOrderResponse{
		EntryOrderID:      entry.OrderID,
		AvgEntryPrice:     avgEntry,
		StopOrderID:       slOrder.OrderID,
		TakeProfitOrderID: tpOrder.OrderID,
	}, nil
}

// ReplaceStopLoss places a new close-position stop at stopPrice and then
// cancels the previous stop order. Placing before cancelling means the
// position is never unprotected; a brief overlap of two stops is harmless
// since both are close-position orders.
func (c *Client) ReplaceStopLoss(ctx context.Context, symbol string, side domain.OrderSide, quantity, stopPrice string, prevOrderID int64) (*ports.OrderResponse, error) {
	op := "ReplaceStopLoss"
	newStop, err := c.futuresClient.NewCreateOrderService().
		Symbol(symbol).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeStopMarket).
		StopPrice(stopPrice).
		ClosePosition(true).
		Do(ctx)
	if err != nil {
		wrapped := c.handleError(ctx, err, op)
		return nil, fmt.Errorf("%w: %w", ports.ErrStopModifyFailed, wrapped)
	}

	if prevOrderID != 0 {
		c.cancelOrderWarn(ctx, symbol, prevOrderID)
	}

	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol":      symbol,
		"stopPrice":   stopPrice,
		"newOrderID":  newStop.OrderID,
		"prevOrderID": prevOrderID,
	})
	origQty, _ := strconv.ParseFloat(newStop.OrigQuantity, 64)
	return &ports.OrderResponse{
		OrderID:      newStop.OrderID,
		Symbol:       newStop.Symbol,
		OrigQuantity: origQty,
		Status:       string(newStop.Status),
	}, nil
}

// GetPositionRisk retrieves the open position for a symbol. A missing or
// zero-amount position returns nil, nil.
func (c *Client) GetPositionRisk(ctx context.Context, symbol string) (*ports.PositionRisk, error) {
	op := "GetPositionRisk"
	positions, err := c.futuresClient.NewGetPositionRiskService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if len(positions) == 0 {
		return nil, nil
	}

	pos := positions[0]
	amt, _ := strconv.ParseFloat(pos.PositionAmt, 64)
	if amt == 0 {
		return nil, nil
	}
	entryPrice, _ := strconv.ParseFloat(pos.EntryPrice, 64)
	markPrice, _ := strconv.ParseFloat(pos.MarkPrice, 64)
	unProfit, _ := strconv.ParseFloat(pos.UnRealizedProfit, 64)
	leverage, _ := strconv.Atoi(pos.Leverage)

	return &ports.PositionRisk{
		Symbol:           pos.Symbol,
		PositionAmt:      amt,
		EntryPrice:       entryPrice,
		MarkPrice:        markPrice,
		UnRealizedProfit: unProfit,
		Leverage:         leverage,
	}, nil
}

// emergencyClose flattens exposure with a market order after a failed
// protective placement. Failures here need manual intervention.
func (c *Client) emergencyClose(ctx context.Context, symbol string, side futures.SideType, quantity string) {
	_, err := c.futuresClient.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(quantity).
		Do(ctx)
	if err != nil {
		c.logger.Error(ctx, err, "EMERGENCY CLOSE FAILED, manual intervention required", map[string]interface{}{
			"symbol":   symbol,
			"quantity": quantity,
		})
		return
	}
	c.logger.Warn(ctx, "Emergency close order placed", map[string]interface{}{"symbol": symbol})
}

// cancelOrderWarn cancels an order, treating "order not found" as success
// since the order may have filled or been cancelled already.
func (c *Client) cancelOrderWarn(ctx context.Context, symbol string, orderID int64) {
	_, err := c.futuresClient.NewCancelOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		wrapped := c.handleError(ctx, err, "CancelOrder")
		if errors.Is(wrapped, ports.ErrOrderNotFound) {
			return
		}
		c.logger.Warn(ctx, "Failed to cancel order", map[string]interface{}{
			"symbol":  symbol,
			"orderID": orderID,
			"error":   wrapped.Error(),
		})
	}
}

func translateKline(bk *futures.Kline, symbol, interval string) (*domain.Kline, error) {
	if bk == nil {
		return nil, errors.New("received nil kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open %q: %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high %q: %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low %q: %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close %q: %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume %q: %w", bk.Volume, err)
	}

	return &domain.Kline{
		OpenTime:  time.UnixMilli(bk.OpenTime),
		CloseTime: time.UnixMilli(bk.CloseTime),
		Symbol:    symbol,
		Interval:  interval,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
	}, nil
}
