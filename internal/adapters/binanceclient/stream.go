package binanceclient

import (
	"context"
	"strconv"
	"time"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"

	"github.com/adshao/go-binance/v2/futures"
)

const listenKeyKeepalive = 25 * time.Minute

// StreamUserData starts the user-data WebSocket stream and feeds the decoded
// order and position signals to the consumer. The listen key is kept alive
// until the context is cancelled.
func (c *Client) StreamUserData(ctx context.Context, consumer ports.SignalConsumer, errHandler func(err error)) (doneCh chan struct{}, err error) {
	op := "StreamUserData"

	listenKey, err := c.futuresClient.NewStartUserStreamService().Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	wsCtx, cancelWs := context.WithCancel(ctx)

	binanceHandler := func(event *futures.WsUserDataEvent) {
		c.dispatchUserData(wsCtx, event, consumer)
	}
	binanceErrHandler := func(err error) {
		errHandler(c.handleError(wsCtx, err, op+" WebSocket"))
	}

	go func() {
		defer cancelWs()
		c.runStream(wsCtx, op, map[string]interface{}{"listenKey": listenKey[:8] + "..."}, func() (chan struct{}, chan struct{}, error) {
			return futures.WsUserDataServe(listenKey, binanceHandler, binanceErrHandler)
		})
	}()

	// Listen keys expire after 60 minutes without a keepalive.
	go func() {
		ticker := time.NewTicker(listenKeyKeepalive)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.futuresClient.NewKeepaliveUserStreamService().ListenKey(listenKey).Do(wsCtx); err != nil {
					c.handleError(wsCtx, err, op+" keepalive")
				}
			case <-wsCtx.Done():
				return
			}
		}
	}()

	doneCh = make(chan struct{})
	go func() {
		<-wsCtx.Done()
		close(doneCh)
	}()
	return doneCh, nil
}

// dispatchUserData translates one raw user-data event into domain signals.
func (c *Client) dispatchUserData(ctx context.Context, event *futures.WsUserDataEvent, consumer ports.SignalConsumer) {
	if event == nil {
		return
	}
	switch event.Event {
	case futures.UserDataEventTypeOrderTradeUpdate:
		sig := translateOrderUpdate(&event.OrderTradeUpdate, float64(event.Time)/1000.0)
		if sig == nil {
			return
		}
		consumer.OnOrderSignal(*sig)
	case futures.UserDataEventTypeAccountUpdate:
		for _, sig := range translateAccountUpdate(&event.AccountUpdate, float64(event.Time)/1000.0) {
			consumer.OnPositionSignal(sig)
		}
	default:
		c.logger.Debug(ctx, "Ignoring user-data event", map[string]interface{}{"event": string(event.Event)})
	}
}

// translateOrderUpdate maps a futures order update to a domain order signal.
// Binance reports both the incremental fill and the running totals, so the
// signal carries last-fill quantities as incremental plus the authoritative
// cumulative average.
func translateOrderUpdate(u *futures.WsOrderTradeUpdate, ts float64) *domain.OrderEvent {
	sig := &domain.OrderEvent{
		Symbol:     u.Symbol,
		OrderID:    strconv.FormatInt(u.ID, 10),
		RefOrderID: u.ClientOrderID,
		Timestamp:  ts,
	}

	switch u.ExecutionType {
	case futures.OrderExecutionTypeNew:
		sig.Type = domain.OrderOpened
		sig.Price = parseOpt(u.OriginalPrice)
		sig.StopPrice = parseOpt(u.StopPrice)
		sig.Quantity = parseOpt(u.OriginalQty)
	case futures.OrderExecutionTypeTrade:
		sig.Type = domain.OrderTraded
		sig.Filled = parseOpt(u.LastFilledQty)
		sig.CumulativeFilled = parseOpt(u.AccumulatedFilledQty)
		sig.ExecPrice = parseOpt(u.LastFilledPrice)
		sig.AvgPrice = parseOpt(u.AveragePrice)
		sig.FullyFilled = u.Status == futures.OrderStatusTypeFilled
		sig.Commission = parseOpt(u.Commission)
		sig.CommissionAsset = u.CommissionAsset
		maker := u.IsMaker
		sig.Maker = &maker
	case futures.OrderExecutionTypeCanceled:
		sig.Type = domain.OrderCanceled
	case futures.OrderExecutionTypeExpired:
		sig.Type = domain.OrderDeleted
	default:
		if u.Status == futures.OrderStatusTypeRejected {
			sig.Type = domain.OrderRejected
			break
		}
		return nil
	}
	return sig
}

// translateAccountUpdate maps position rows of an account update to domain
// position signals. One-way futures positions are keyed by symbol, so the
// symbol doubles as the position id.
func translateAccountUpdate(u *futures.WsAccountUpdate, ts float64) []domain.PositionEvent {
	sigs := make([]domain.PositionEvent, 0, len(u.Positions))
	for _, p := range u.Positions {
		amt, err := strconv.ParseFloat(p.Amount, 64)
		if err != nil {
			continue
		}
		sig := domain.PositionEvent{
			Symbol:     p.Symbol,
			PositionID: p.Symbol,
			Timestamp:  ts,
		}
		if amt == 0 {
			sig.Type = domain.PositionDeleted
			sig.Direction = domain.Long
			zero := 0.0
			sig.Quantity = &zero
		} else {
			sig.Type = domain.PositionUpdated
			if amt > 0 {
				sig.Direction = domain.Long
			} else {
				sig.Direction = domain.Short
				amt = -amt
			}
			sig.Quantity = &amt
			sig.AvgPrice = parseOpt(p.EntryPrice)
			sig.ProfitLoss = parseOpt(p.UnrealizedPnL)
		}
		sigs = append(sigs, sig)
	}
	return sigs
}

func parseOpt(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
