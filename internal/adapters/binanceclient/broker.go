package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/google/uuid"
)

// SetRefOrderID assigns a client order id so async signals can be correlated
// before the exchange assigns its own order id.
func (c *Client) SetRefOrderID(order *domain.Order) string {
	if order.RefOrderID == "" {
		order.RefOrderID = "x-" + uuid.NewString()
	}
	return order.RefOrderID
}

// CreateOrder submits an order and returns the exchange order id.
func (c *Client) CreateOrder(ctx context.Context, order *domain.Order, instrument *domain.Instrument) (string, error) {
	op := "CreateOrder"

	svc := c.futuresClient.NewCreateOrderService().
		Symbol(order.Symbol).
		Side(orderSide(order.Direction)).
		Quantity(formatQty(instrument, order.Quantity)).
		NewClientOrderID(order.RefOrderID)

	switch order.Type {
	case domain.OrderMarket:
		svc.Type(futures.OrderTypeMarket)
	case domain.OrderLimit:
		svc.Type(futures.OrderTypeLimit).
			TimeInForce(futures.TimeInForceTypeGTC).
			Price(formatPrice(instrument, order.Price))
	case domain.OrderStop:
		svc.Type(futures.OrderTypeStopMarket).
			StopPrice(formatPrice(instrument, order.StopPrice))
	case domain.OrderStopLimit:
		svc.Type(futures.OrderTypeStop).
			TimeInForce(futures.TimeInForceTypeGTC).
			Price(formatPrice(instrument, order.Price)).
			StopPrice(formatPrice(instrument, order.StopPrice))
	case domain.OrderTakeProfit:
		svc.Type(futures.OrderTypeTakeProfitMarket).
			StopPrice(formatPrice(instrument, order.StopPrice))
	case domain.OrderTakeProfitLimit:
		svc.Type(futures.OrderTypeTakeProfit).
			TimeInForce(futures.TimeInForceTypeGTC).
			Price(formatPrice(instrument, order.Price)).
			StopPrice(formatPrice(instrument, order.StopPrice))
	default:
		return "", fmt.Errorf("%s: unsupported order type %q: %w", op, order.Type, ports.ErrInvalidRequest)
	}

	if order.ReduceOnly {
		svc.ReduceOnly(true)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return "", c.handleError(ctx, err, op)
	}

	orderID := strconv.FormatInt(res.OrderID, 10)
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": order.Symbol, "side": string(orderSide(order.Direction)), "type": string(order.Type),
		"quantity": order.Quantity, "orderID": orderID, "refOrderID": order.RefOrderID,
	})
	return orderID, nil
}

// CancelOrder cancels an open order.
func (c *Client) CancelOrder(ctx context.Context, orderID string, instrument *domain.Instrument) error {
	op := "CancelOrder"
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: malformed order id %q: %w", op, orderID, ports.ErrInvalidRequest)
	}

	_, err = c.futuresClient.NewCancelOrderService().
		Symbol(instrument.Symbol).
		OrderID(id).
		Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Info(ctx, op+" successful", map[string]interface{}{"symbol": instrument.Symbol, "orderID": orderID})
	return nil
}

// OrderInfo polls the exchange for one order. An order the exchange no longer
// knows is reported as an empty OrderInfo, not an error, so the caller can
// run its reconciliation.
func (c *Client) OrderInfo(ctx context.Context, orderID string, instrument *domain.Instrument) (*domain.OrderInfo, error) {
	op := "OrderInfo"
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed order id %q: %w", op, orderID, ports.ErrInvalidRequest)
	}

	res, err := c.futuresClient.NewGetOrderService().
		Symbol(instrument.Symbol).
		OrderID(id).
		Do(ctx)
	if err != nil {
		translated := c.handleError(ctx, err, op)
		if errors.Is(translated, ports.ErrOrderNotFound) {
			return &domain.OrderInfo{}, nil
		}
		return nil, translated
	}

	cumQty, _ := strconv.ParseFloat(res.ExecutedQuantity, 64)
	avgPrice, _ := strconv.ParseFloat(res.AvgPrice, 64)

	return &domain.OrderInfo{
		ID:            strconv.FormatInt(res.OrderID, 10),
		RefOrderID:    res.ClientOrderID,
		Symbol:        res.Symbol,
		Status:        string(res.Status),
		CumulativeQty: cumQty,
		AvgPrice:      avgPrice,
		FullyFilled:   res.Status == futures.OrderStatusTypeFilled,
		Canceled:      res.Status == futures.OrderStatusTypeCanceled || res.Status == futures.OrderStatusTypeExpired,
		Timestamp:     float64(res.UpdateTime) / 1000.0,
	}, nil
}

// ClosePosition reduces (part of) the exchange-side position with a
// reduce-only order on the opposite side. The positionID is the engine's
// synthetic id; USD-M futures in one-way mode keys positions by symbol.
func (c *Client) ClosePosition(ctx context.Context, positionID string, instrument *domain.Instrument,
	direction domain.Direction, quantity float64, market bool, price float64) error {
	op := "ClosePosition"

	svc := c.futuresClient.NewCreateOrderService().
		Symbol(instrument.Symbol).
		Side(orderSide(direction.Opposite())).
		Quantity(formatQty(instrument, quantity)).
		ReduceOnly(true)

	if market {
		svc.Type(futures.OrderTypeMarket)
	} else {
		svc.Type(futures.OrderTypeLimit).
			TimeInForce(futures.TimeInForceTypeGTC).
			Price(formatPrice(instrument, price))
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": instrument.Symbol, "positionID": positionID, "quantity": quantity,
		"market": market, "orderID": res.OrderID,
	})
	return nil
}

// ModifyPosition replaces the close-position protective orders for a symbol.
// Existing STOP_MARKET / TAKE_PROFIT_MARKET close orders are cancelled and
// fresh ones placed for each non-zero price.
func (c *Client) ModifyPosition(ctx context.Context, positionID string, instrument *domain.Instrument,
	stopLoss, takeProfit float64) error {
	op := "ModifyPosition"

	positions, err := c.futuresClient.NewGetPositionRiskService().
		Symbol(instrument.Symbol).
		Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	dir := domain.Direction(0)
	for _, p := range positions {
		amt, _ := strconv.ParseFloat(p.PositionAmt, 64)
		if amt > 0 {
			dir = domain.Long
		} else if amt < 0 {
			dir = domain.Short
		}
	}
	if dir == 0 {
		return fmt.Errorf("%s: no open position for %s: %w", op, instrument.Symbol, ports.ErrPositionNotFound)
	}

	open, err := c.futuresClient.NewListOpenOrdersService().
		Symbol(instrument.Symbol).
		Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}

	for _, o := range open {
		if o.Type != futures.OrderTypeStopMarket && o.Type != futures.OrderTypeTakeProfitMarket {
			continue
		}
		if !o.ClosePosition {
			continue
		}
		if _, err := c.futuresClient.NewCancelOrderService().
			Symbol(instrument.Symbol).
			OrderID(o.OrderID).
			Do(ctx); err != nil {
			translated := c.handleError(ctx, err, op)
			if !errors.Is(translated, ports.ErrOrderNotFound) {
				return translated
			}
		}
	}

	if stopLoss > 0 {
		if _, err := c.futuresClient.NewCreateOrderService().
			Symbol(instrument.Symbol).
			Side(orderSide(dir.Opposite())).
			Type(futures.OrderTypeStopMarket).
			StopPrice(formatPrice(instrument, stopLoss)).
			ClosePosition(true).
			Do(ctx); err != nil {
			return c.handleError(ctx, err, op)
		}
	}
	if takeProfit > 0 {
		if _, err := c.futuresClient.NewCreateOrderService().
			Symbol(instrument.Symbol).
			Side(orderSide(dir.Opposite())).
			Type(futures.OrderTypeTakeProfitMarket).
			StopPrice(formatPrice(instrument, takeProfit)).
			ClosePosition(true).
			Do(ctx); err != nil {
			return c.handleError(ctx, err, op)
		}
	}

	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": instrument.Symbol, "positionID": positionID,
		"stopLoss": stopLoss, "takeProfit": takeProfit,
	})
	return nil
}

func orderSide(dir domain.Direction) futures.SideType {
	if dir == domain.Short {
		return futures.SideTypeSell
	}
	return futures.SideTypeBuy
}

func formatQty(inst *domain.Instrument, qty float64) string {
	if inst != nil {
		qty = inst.AdjustQuantity(qty)
	}
	return strconv.FormatFloat(qty, 'f', -1, 64)
}

func formatPrice(inst *domain.Instrument, price float64) string {
	if inst != nil {
		price = inst.AdjustPrice(price)
	}
	return strconv.FormatFloat(price, 'f', -1, 64)
}
