package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/order-refund/internal/core/domain"
)

// calls records the order in which collaborators were hit
type calls []string

type stubAvailability struct {
	log       *calls
	available bool
	err       error
	numbers   []string
}

func (s *stubAvailability) IsAvailable(ctx context.Context, orderNumber string) (bool, error) {
	*s.log = append(*s.log, "availability")
	s.numbers = append(s.numbers, orderNumber)
	return s.available, s.err
}

type refundCall struct {
	ids         []int64
	orderNumber string
}

type stubRefunder struct {
	log    *calls
	name   string
	amount int64
	err    error
	calls  []refundCall
}

func (s *stubRefunder) RefundFromOrder(ctx context.Context, ids []int64, orderNumber string) (int64, error) {
	*s.log = append(*s.log, s.name)
	s.calls = append(s.calls, refundCall{ids: ids, orderNumber: orderNumber})
	return s.amount, s.err
}

type capturingPublisher struct {
	log    *calls
	err    error
	events []domain.UnitsRefunded
}

func (p *capturingPublisher) Publish(ctx context.Context, event domain.UnitsRefunded) error {
	*p.log = append(*p.log, "publish")
	p.events = append(p.events, event)
	return p.err
}

type stubOrders struct {
	log     *calls
	order   domain.Order
	err     error
	lookups []string
	updates []domain.Order
}

func (s *stubOrders) FindOneByNumber(ctx context.Context, number string) (domain.Order, error) {
	*s.log = append(*s.log, "find")
	s.lookups = append(s.lookups, number)
	return s.order, s.err
}

func (s *stubOrders) UpdatePaymentState(ctx context.Context, order domain.Order) error {
	s.updates = append(s.updates, order)
	return nil
}

type stubTotalChecker struct {
	log           *calls
	fullyRefunded bool
	err           error
	checked       []domain.Order
}

func (s *stubTotalChecker) Check(ctx context.Context, order domain.Order) (bool, error) {
	*s.log = append(*s.log, "check")
	s.checked = append(s.checked, order)
	return s.fullyRefunded, s.err
}

type stubResolver struct {
	log      *calls
	err      error
	resolved []domain.Order
}

func (s *stubResolver) Resolve(ctx context.Context, order domain.Order) error {
	*s.log = append(*s.log, "resolve")
	s.resolved = append(s.resolved, order)
	return s.err
}

type handlerFixture struct {
	log          calls
	availability *stubAvailability
	units        *stubRefunder
	shipments    *stubRefunder
	publisher    *capturingPublisher
	orders       *stubOrders
	checker      *stubTotalChecker
	resolver     *stubResolver
	order        domain.Order
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		order: domain.Order{ID: 7, Number: "000222", PaymentState: domain.PaymentStatePaid, TotalCents: 10000},
	}
	f.availability = &stubAvailability{log: &f.log, available: true}
	f.units = &stubRefunder{log: &f.log, name: "units"}
	f.shipments = &stubRefunder{log: &f.log, name: "shipments"}
	f.publisher = &capturingPublisher{log: &f.log}
	f.orders = &stubOrders{log: &f.log, order: f.order}
	f.checker = &stubTotalChecker{log: &f.log}
	f.resolver = &stubResolver{log: &f.log}
	return f
}

func (f *handlerFixture) handler() *RefundUnitsHandler {
	return NewRefundUnitsHandler(f.units, f.shipments, f.availability, f.publisher, f.orders, f.checker, f.resolver)
}

func TestHandle_PublishesEventWithSummedAmount(t *testing.T) {
	f := newHandlerFixture()
	f.units.amount = 3000
	f.shipments.amount = 4000

	err := f.handler().Handle(context.Background(), domain.NewRefundUnits("000222", []int64{1, 3}, []int64{3, 4}))
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.UnitsRefunded{
		OrderNumber: "000222",
		UnitIDs:     []int64{1, 3},
		ShipmentIDs: []int64{3, 4},
		Amount:      7000,
	}, f.publisher.events[0])

	assert.Equal(t, []refundCall{{ids: []int64{1, 3}, orderNumber: "000222"}}, f.units.calls)
	assert.Equal(t, []refundCall{{ids: []int64{3, 4}, orderNumber: "000222"}}, f.shipments.calls)
	assert.Equal(t, []string{"000222"}, f.orders.lookups)
	assert.Equal(t, []domain.Order{f.order}, f.checker.checked)
	assert.Empty(t, f.resolver.resolved)
}

func TestHandle_ResolvesFullyRefundedOrder(t *testing.T) {
	f := newHandlerFixture()
	f.units.amount = 1000
	f.shipments.amount = 500
	f.checker.fullyRefunded = true

	err := f.handler().Handle(context.Background(), domain.NewRefundUnits("000222", []int64{1, 3}, []int64{3, 4}))
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, int64(1500), f.publisher.events[0].Amount)
	assert.Equal(t, []int64{1, 3}, f.publisher.events[0].UnitIDs)
	assert.Equal(t, []domain.Order{f.order}, f.resolver.resolved)
}

func TestHandle_OrderNotAvailableForRefunding(t *testing.T) {
	f := newHandlerFixture()
	f.availability.available = false

	err := f.handler().Handle(context.Background(), domain.NewRefundUnits("000222", []int64{1, 3}, []int64{3, 4}))

	assert.ErrorIs(t, err, ErrOrderNotAvailableForRefunding)
	assert.Equal(t, calls{"availability"}, f.log)
	assert.Empty(t, f.units.calls)
	assert.Empty(t, f.shipments.calls)
	assert.Empty(t, f.publisher.events)
	assert.Empty(t, f.orders.lookups)
}

func TestHandle_CallOrder(t *testing.T) {
	f := newHandlerFixture()
	f.checker.fullyRefunded = true

	err := f.handler().Handle(context.Background(), domain.NewRefundUnits("000222", []int64{1}, nil))
	require.NoError(t, err)

	assert.Equal(t, calls{"availability", "units", "shipments", "publish", "find", "check", "resolve"}, f.log)
}

func TestHandle_KeepsDuplicateIDsInEvent(t *testing.T) {
	f := newHandlerFixture()
	f.units.amount = 200

	err := f.handler().Handle(context.Background(), domain.NewRefundUnits("000222", []int64{3, 1, 3}, []int64{}))
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, []int64{3, 1, 3}, f.publisher.events[0].UnitIDs)
	assert.Empty(t, f.publisher.events[0].ShipmentIDs)
}

func TestHandle_NotIdempotent(t *testing.T) {
	f := newHandlerFixture()
	f.units.amount = 100
	h := f.handler()
	cmd := domain.NewRefundUnits("000222", []int64{1}, []int64{2})

	require.NoError(t, h.Handle(context.Background(), cmd))
	require.NoError(t, h.Handle(context.Background(), cmd))

	assert.Len(t, f.units.calls, 2)
	assert.Len(t, f.shipments.calls, 2)
	assert.Len(t, f.publisher.events, 2)
}

func TestHandle_PropagatesCollaboratorErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		arrange   func(f *handlerFixture)
		published int
	}{
		{"availability", func(f *handlerFixture) { f.availability.err = boom }, 0},
		{"units refunder", func(f *handlerFixture) { f.units.err = boom }, 0},
		{"shipments refunder", func(f *handlerFixture) { f.shipments.err = boom }, 0},
		{"publisher", func(f *handlerFixture) { f.publisher.err = boom }, 1},
		{"repository", func(f *handlerFixture) { f.orders.err = boom }, 1},
		{"total checker", func(f *handlerFixture) { f.checker.err = boom }, 1},
		{"state resolver", func(f *handlerFixture) {
			f.checker.fullyRefunded = true
			f.resolver.err = boom
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture()
			tt.arrange(f)

			err := f.handler().Handle(context.Background(), domain.NewRefundUnits("000222", []int64{1}, []int64{2}))

			assert.Equal(t, boom, err)
			assert.Len(t, f.publisher.events, tt.published)
		})
	}
}

func TestHandle_OrderNotFoundAfterRefund(t *testing.T) {
	f := newHandlerFixture()
	f.orders.err = domain.ErrOrderNotFound

	err := f.handler().Handle(context.Background(), domain.NewRefundUnits("000222", []int64{1}, nil))

	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Empty(t, f.checker.checked)
	assert.Empty(t, f.resolver.resolved)
}
