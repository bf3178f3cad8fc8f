package trader

import (
	"context"
	"fmt"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"
)

type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockBroker struct {
	nextID    int
	created   []*domain.Order
	createErr error
	canceled  []string
	infos     map[string]*domain.OrderInfo
	infoErr   error
}

func newMockBroker() *mockBroker {
	return &mockBroker{infos: make(map[string]*domain.OrderInfo)}
}

func (m *mockBroker) SetRefOrderID(order *domain.Order) string {
	m.nextID++
	order.RefOrderID = fmt.Sprintf("ref-%d", m.nextID)
	return order.RefOrderID
}

func (m *mockBroker) CreateOrder(ctx context.Context, order *domain.Order, inst *domain.Instrument) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created = append(m.created, order)
	return fmt.Sprintf("oid-%d", len(m.created)), nil
}

func (m *mockBroker) CancelOrder(ctx context.Context, orderID string, inst *domain.Instrument) error {
	m.canceled = append(m.canceled, orderID)
	return nil
}

func (m *mockBroker) OrderInfo(ctx context.Context, orderID string, inst *domain.Instrument) (*domain.OrderInfo, error) {
	if m.infoErr != nil {
		return nil, m.infoErr
	}
	if info, ok := m.infos[orderID]; ok {
		return info, nil
	}
	return &domain.OrderInfo{}, nil
}

func (m *mockBroker) ClosePosition(ctx context.Context, positionID string, inst *domain.Instrument,
	direction domain.Direction, quantity float64, market bool, price float64) error {
	return nil
}

func (m *mockBroker) ModifyPosition(ctx context.Context, positionID string, inst *domain.Instrument,
	stopLoss, takeProfit float64) error {
	return nil
}

type mockRepo struct {
	snaps    map[string]*ports.TradeSnapshot
	deleted  []int
	closed   []*domain.ClosedTrade
	loadErr  error
	saveErr  error
	closeErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{snaps: make(map[string]*ports.TradeSnapshot)}
}

func snapKey(symbol string, tradeID int) string {
	return fmt.Sprintf("%s/%d", symbol, tradeID)
}

func (m *mockRepo) SaveSnapshot(ctx context.Context, snap *ports.TradeSnapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snaps[snapKey(snap.Symbol, snap.TradeID)] = snap
	return nil
}

func (m *mockRepo) DeleteSnapshot(ctx context.Context, symbol string, tradeID int) error {
	delete(m.snaps, snapKey(symbol, tradeID))
	m.deleted = append(m.deleted, tradeID)
	return nil
}

func (m *mockRepo) LoadSnapshots(ctx context.Context, symbol string) ([]*ports.TradeSnapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	var out []*ports.TradeSnapshot
	for _, snap := range m.snaps {
		if snap.Symbol == symbol {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (m *mockRepo) CreateClosedTrade(ctx context.Context, rec *domain.ClosedTrade) (int64, error) {
	if m.closeErr != nil {
		return 0, m.closeErr
	}
	m.closed = append(m.closed, rec)
	return int64(len(m.closed)), nil
}

func (m *mockRepo) FindClosedBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.ClosedTrade, error) {
	var out []*domain.ClosedTrade
	for i := len(m.closed) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.closed[i].Symbol == symbol {
			out = append(out, m.closed[i])
		}
	}
	return out, nil
}

func (m *mockRepo) TotalProfitRate(ctx context.Context, symbol string) (float64, error) {
	total := 0.0
	for _, rec := range m.closed {
		if rec.Symbol == symbol {
			total += rec.ProfitLossRate
		}
	}
	return total, nil
}

func testInstrument() *domain.Instrument {
	return &domain.Instrument{
		Symbol:   "BTCUSDT",
		Currency: "USDT",
		TickSize: 0.1,
		StepSize: 0.001,
		MakerFee: 0.0005,
		TakerFee: 0.001,
		Bid:      999.9,
		Ask:      1000.1,
	}
}

func fptr(v float64) *float64 { return &v }
