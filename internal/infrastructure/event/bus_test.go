package event

import (
	"context"
	"errors"
	"testing"

	"github.com/gatepass/backend/internal/domain/gatepass"
	"github.com/gatepass/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type captureHandler struct {
	types    []string
	captured []shared.DomainEvent
	err      error
	panics   bool
}

func (h *captureHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler blew up")
	}
	h.captured = append(h.captured, event)
	return h.err
}

func (h *captureHandler) EventTypes() []string {
	return h.types
}

func newTestEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, gatepass.AggregateTypeGatePass, uuid.New())
	return &e
}

func TestInMemoryEventBus_PublishToSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	handler := &captureHandler{types: []string{gatepass.EventTypeGatePassCreated}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent(gatepass.EventTypeGatePassCreated))
	require.NoError(t, err)

	require.Len(t, handler.captured, 1)
	assert.Equal(t, gatepass.EventTypeGatePassCreated, handler.captured[0].EventType())
}

func TestInMemoryEventBus_TypeFiltering(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	handler := &captureHandler{types: []string{gatepass.EventTypeGatePassRejected}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(),
		newTestEvent(gatepass.EventTypeGatePassCreated),
		newTestEvent(gatepass.EventTypeGatePassRejected),
	)
	require.NoError(t, err)

	require.Len(t, handler.captured, 1)
	assert.Equal(t, gatepass.EventTypeGatePassRejected, handler.captured[0].EventType())
}

func TestInMemoryEventBus_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	handler := &captureHandler{}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(),
		newTestEvent(gatepass.EventTypeGatePassCreated),
		newTestEvent(gatepass.EventTypeGatePassApproved),
	)
	require.NoError(t, err)

	assert.Len(t, handler.captured, 2)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	handler := &captureHandler{types: []string{gatepass.EventTypeGatePassCreated}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent(gatepass.EventTypeGatePassCreated))
	require.NoError(t, err)

	assert.Empty(t, handler.captured)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	failing := &captureHandler{types: []string{gatepass.EventTypeGatePassCreated}, err: errors.New("boom")}
	healthy := &captureHandler{types: []string{gatepass.EventTypeGatePassCreated}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent(gatepass.EventTypeGatePassCreated))
	require.NoError(t, err)

	assert.Len(t, healthy.captured, 1)
}

func TestInMemoryEventBus_HandlerPanicRecovered(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	panicking := &captureHandler{types: []string{gatepass.EventTypeGatePassCreated}, panics: true}
	healthy := &captureHandler{types: []string{gatepass.EventTypeGatePassCreated}}
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), newTestEvent(gatepass.EventTypeGatePassCreated))
	})
	assert.Len(t, healthy.captured, 1)
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))
}

func TestAuditLogHandler_CoversWorkflowEvents(t *testing.T) {
	handler := NewAuditLogHandler(zaptest.NewLogger(t))

	assert.ElementsMatch(t, []string{
		gatepass.EventTypeGatePassCreated,
		gatepass.EventTypeGatePassVerified,
		gatepass.EventTypeGatePassApproved,
		gatepass.EventTypeGatePassRejected,
		gatepass.EventTypeGatePassItemsReturned,
	}, handler.EventTypes())
}

func TestAuditLogHandler_HandleGatePassEvents(t *testing.T) {
	handler := NewAuditLogHandler(zaptest.NewLogger(t))
	ctx := context.Background()

	gp, err := gatepass.NewGatePassRequest("GP-2026-00042", "EMP500", "EMP600",
		"Kandy Depot", "Colombo HQ", "KANDY", "HO")
	require.NoError(t, err)

	events := []shared.DomainEvent{
		gatepass.NewGatePassCreatedEvent(gp),
		gatepass.NewGatePassVerifiedEvent(gp, "EMP700"),
		gatepass.NewGatePassApprovedEvent(gp, "EMP800"),
		gatepass.NewGatePassRejectedEvent(gp, "EMP700"),
		gatepass.NewGatePassItemsReturnedEvent(gp, []string{"SN-1"}, 1),
	}
	for _, event := range events {
		assert.NoError(t, handler.Handle(ctx, event))
	}
}
