package trade

import (
	"context"
	"fmt"

	"tradeLedgerBot/internal/domain"
)

// mockBroker records order traffic and replays scripted responses.
type mockBroker struct {
	nextID int

	created   []*domain.Order
	createErr error

	canceled  []string
	cancelErr map[string]error

	infos   map[string]*domain.OrderInfo
	infoErr error

	closeCalls []closeCall
	closeErr   error

	modifyCalls []modifyCall
	modifyErr   error
}

type closeCall struct {
	positionID string
	direction  domain.Direction
	quantity   float64
	market     bool
	price      float64
}

type modifyCall struct {
	positionID string
	stopLoss   float64
	takeProfit float64
}

func newMockBroker() *mockBroker {
	return &mockBroker{
		cancelErr: make(map[string]error),
		infos:     make(map[string]*domain.OrderInfo),
	}
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
	if err, ok := m.cancelErr[orderID]; ok {
		return err
	}
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
	// Unknown order: empty ID, not an API error.
	return &domain.OrderInfo{}, nil
}

func (m *mockBroker) ClosePosition(ctx context.Context, positionID string, inst *domain.Instrument,
	direction domain.Direction, quantity float64, market bool, price float64) error {
	if m.closeErr != nil {
		return m.closeErr
	}
	m.closeCalls = append(m.closeCalls, closeCall{positionID, direction, quantity, market, price})
	return nil
}

func (m *mockBroker) ModifyPosition(ctx context.Context, positionID string, inst *domain.Instrument,
	stopLoss, takeProfit float64) error {
	if m.modifyErr != nil {
		return m.modifyErr
	}
	m.modifyCalls = append(m.modifyCalls, modifyCall{positionID, stopLoss, takeProfit})
	return nil
}

func (m *mockBroker) lastOrder() *domain.Order {
	if len(m.created) == 0 {
		return nil
	}
	return m.created[len(m.created)-1]
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
func bptr(v bool) *bool       { return &v }
