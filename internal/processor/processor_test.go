package processor

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mesaflow/mesaflow-backend/internal/customers"
	"github.com/mesaflow/mesaflow-backend/internal/engine"
	"github.com/mesaflow/mesaflow-backend/internal/orders"
	"github.com/mesaflow/mesaflow-backend/internal/transcript"
	"github.com/mesaflow/mesaflow-backend/internal/whatsapp"
	"github.com/mesaflow/mesaflow-backend/pkg/db/models"
	"github.com/mesaflow/mesaflow-backend/pkg/enums"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
	"github.com/mesaflow/mesaflow-backend/pkg/logger"
	"github.com/mesaflow/mesaflow-backend/pkg/types"
)

type stubTenants struct {
	restaurant *models.Restaurant
	err        error
}

func (s *stubTenants) FindByBusinessAccountID(_ context.Context, _ string) (*models.Restaurant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.restaurant, nil
}

type stubCustomers struct {
	customer     *models.Customer
	conversation *models.Conversation
	updateErr    error
	updates      []customers.ConversationUpdate
}

func (s *stubCustomers) WithTx(_ *gorm.DB) customers.Repository { return s }

func (s *stubCustomers) GetOrCreateCustomer(_ context.Context, _ uuid.UUID, _, _ string) (*models.Customer, error) {
	return s.customer, nil
}

func (s *stubCustomers) GetOrCreateConversation(_ context.Context, _, _ uuid.UUID) (*models.Conversation, error) {
	return s.conversation, nil
}

func (s *stubCustomers) UpdateConversation(_ context.Context, _ uuid.UUID, update customers.ConversationUpdate) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, update)
	return nil
}

type stubOrderRepo struct {
	created   []*models.Order
	createErr error
}

func (s *stubOrderRepo) WithTx(_ *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) CreateWithItems(_ context.Context, order *models.Order) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, order)
	return nil
}

func (s *stubOrderRepo) ListRecentByCustomer(_ context.Context, _ uuid.UUID, _ int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) FindWithItems(_ context.Context, _, _ uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrderRepo) FindLatestByCustomer(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no orders yet")
}

type stubTranscript struct {
	entries   []transcript.Entry
	appendErr error
}

func (s *stubTranscript) Append(_ context.Context, entry transcript.Entry) (*models.Message, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	s.entries = append(s.entries, entry)
	return &models.Message{ID: uuid.New()}, nil
}

type stubEngine struct {
	result engine.Result
	err    error
	calls  int
}

func (s *stubEngine) Step(_ context.Context, _ engine.Input) (engine.Result, error) {
	s.calls++
	return s.result, s.err
}

type stubSender struct {
	sent     []types.Reply
	credRefs []string
	sendErr  error
}

func (s *stubSender) Send(_ context.Context, _, _, credentialRef string, reply types.Reply) (string, error) {
	if s.sendErr != nil {
		return "", s.sendErr
	}
	s.sent = append(s.sent, reply)
	s.credRefs = append(s.credRefs, credentialRef)
	return "wamid.out", nil
}

type stubDeduper struct {
	claimed  bool
	claimErr error
	released []string
}

func (s *stubDeduper) MarkEventProcessed(_ context.Context, _ string, _ time.Duration) (bool, error) {
	return s.claimed, s.claimErr
}

func (s *stubDeduper) ReleaseEvent(_ context.Context, id string) error {
	s.released = append(s.released, id)
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type harness struct {
	processor  *Processor
	tenants    *stubTenants
	customers  *stubCustomers
	orders     *stubOrderRepo
	transcript *stubTranscript
	engine     *stubEngine
	sender     *stubSender
	dedup      *stubDeduper
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	restaurantID := uuid.New()
	h := &harness{
		tenants: &stubTenants{restaurant: &models.Restaurant{
			ID: restaurantID, Name: "Mama Olive", BusinessAccountID: "104555",
			BotEnabled: true, Currency: "KES",
		}},
		customers: &stubCustomers{
			customer: &models.Customer{ID: uuid.New(), RestaurantID: restaurantID},
			conversation: &models.Conversation{
				ID: uuid.New(), RestaurantID: restaurantID,
				State: enums.StateBrowsingMenu, Version: 3,
			},
		},
		orders:     &stubOrderRepo{},
		transcript: &stubTranscript{},
		engine: &stubEngine{result: engine.Result{
			State: enums.StateBrowsingMenu,
			Reply: types.TextReply("here is the menu"),
		}},
		sender: &stubSender{},
		dedup:  &stubDeduper{claimed: true},
	}

	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	processor, err := New(
		h.tenants, h.customers, h.orders, h.transcript,
		h.engine, h.sender, h.dedup, stubTx{}, log, nil, Options{},
	)
	require.NoError(t, err)
	h.processor = processor
	return h
}

func inbound() whatsapp.InboundMessage {
	return whatsapp.InboundMessage{
		BusinessAccountID: "104555",
		From:              "254700111222",
		ProfileName:       "Amina",
		ProviderMessageID: "wamid.in.1",
		Type:              enums.MessageTypeText,
		Text:              "menu",
	}
}

func TestProcessHappyPath(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.processor.Process(context.Background(), inbound()))

	assert.Equal(t, 1, h.engine.calls)
	require.Len(t, h.customers.updates, 1)
	assert.Equal(t, int64(3), h.customers.updates[0].ExpectedVersion)
	assert.Equal(t, enums.StateBrowsingMenu, h.customers.updates[0].State)

	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "here is the menu", h.sender.sent[0].Text)

	// Inbound and outbound transcript rows.
	require.Len(t, h.transcript.entries, 2)
	assert.Equal(t, enums.MessageDirectionInbound, h.transcript.entries[0].Direction)
	assert.Equal(t, enums.MessageDirectionOutbound, h.transcript.entries[1].Direction)
}

func TestProcessDuplicateIsAckedWithoutWork(t *testing.T) {
	h := newHarness(t)
	h.dedup.claimed = false

	require.NoError(t, h.processor.Process(context.Background(), inbound()))

	assert.Zero(t, h.engine.calls)
	assert.Empty(t, h.sender.sent)
	assert.Empty(t, h.transcript.entries)
}

func TestProcessLostRaceDiscardsStep(t *testing.T) {
	h := newHarness(t)
	h.customers.updateErr = pkgerrors.New(pkgerrors.CodeConflict, "conversation was modified concurrently")

	require.NoError(t, h.processor.Process(context.Background(), inbound()))

	assert.Equal(t, 1, h.engine.calls)
	assert.Empty(t, h.sender.sent, "losing writer must not reply")
	assert.Empty(t, h.dedup.released, "losing delivery stays consumed")
}

func TestProcessCommitsDraftInOneTransaction(t *testing.T) {
	h := newHarness(t)
	var cart types.Cart
	cart.AddLine(types.CartLine{MenuItemID: uuid.New(), Name: "Fries", UnitPriceCents: 300, Quantity: 2})
	h.engine.result = engine.Result{
		State: enums.StateOrderPlaced,
		Draft: &orders.Draft{OrderType: enums.OrderTypePickup, Cart: cart},
	}

	require.NoError(t, h.processor.Process(context.Background(), inbound()))

	require.Len(t, h.orders.created, 1)
	assert.Equal(t, 600, h.orders.created[0].TotalCents)
	require.Len(t, h.customers.updates, 1)
	assert.Equal(t, enums.StateOrderPlaced, h.customers.updates[0].State)

	require.Len(t, h.sender.sent, 1)
	assert.Contains(t, h.sender.sent[0].Text, "Order confirmed")
}

func TestProcessCommitFailureLeavesConversationAndApologizes(t *testing.T) {
	h := newHarness(t)
	var cart types.Cart
	cart.AddLine(types.CartLine{MenuItemID: uuid.New(), Name: "Fries", UnitPriceCents: 300, Quantity: 1})
	h.engine.result = engine.Result{
		State: enums.StateOrderPlaced,
		Draft: &orders.Draft{OrderType: enums.OrderTypePickup, Cart: cart},
	}
	h.orders.createErr = pkgerrors.New(pkgerrors.CodeValidation, "order has no items")

	require.NoError(t, h.processor.Process(context.Background(), inbound()))

	assert.Empty(t, h.customers.updates, "conversation must stay on the pre-commit turn")
	require.Len(t, h.sender.sent, 1)
	assert.Contains(t, h.sender.sent[0].Text, "Your cart is safe")
}

func TestProcessRetryableFailureReleasesClaim(t *testing.T) {
	h := newHarness(t)
	h.tenants.err = pkgerrors.New(pkgerrors.CodeDependency, "db down")

	err := h.processor.Process(context.Background(), inbound())
	require.Error(t, err)
	assert.True(t, pkgerrors.Retryable(err))
	assert.Equal(t, []string{"wamid.in.1"}, h.dedup.released)
}

func TestProcessUnknownTenantIsAcked(t *testing.T) {
	h := newHarness(t)
	h.tenants.err = pkgerrors.New(pkgerrors.CodeNotFound, "no restaurant for business account")

	require.NoError(t, h.processor.Process(context.Background(), inbound()))
	assert.Empty(t, h.dedup.released, "permanent failures keep the claim")
	assert.Empty(t, h.sender.sent)
}

func TestProcessDisabledBotIsAcked(t *testing.T) {
	h := newHarness(t)
	h.tenants.restaurant.BotEnabled = false

	require.NoError(t, h.processor.Process(context.Background(), inbound()))
	assert.Zero(t, h.engine.calls)
	assert.Empty(t, h.sender.sent)
}

func TestProcessSendFailureIsAbsorbed(t *testing.T) {
	h := newHarness(t)
	h.sender.sendErr = pkgerrors.New(pkgerrors.CodeDependency, "provider 5xx")

	require.NoError(t, h.processor.Process(context.Background(), inbound()))
	require.Len(t, h.customers.updates, 1, "state advanced before the send")
	require.Len(t, h.transcript.entries, 1, "no outbound transcript row without a provider id")
}

func TestProcessSendsWithTenantCredentialRef(t *testing.T) {
	h := newHarness(t)
	h.tenants.restaurant.CredentialRef = "MAMA_OLIVE_WA_TOKEN"

	require.NoError(t, h.processor.Process(context.Background(), inbound()))
	require.Len(t, h.sender.credRefs, 1)
	assert.Equal(t, "MAMA_OLIVE_WA_TOKEN", h.sender.credRefs[0])
}

func TestProcessUnsupportedTypeIsAckedWithoutWork(t *testing.T) {
	h := newHarness(t)
	msg := inbound()
	msg.Type = enums.MessageTypeUnsupported
	msg.Text = ""

	require.NoError(t, h.processor.Process(context.Background(), msg))
	assert.Zero(t, h.engine.calls)
	assert.Empty(t, h.transcript.entries)
	assert.Empty(t, h.sender.sent)
}

func TestProcessDropsMessageWithoutID(t *testing.T) {
	h := newHarness(t)
	msg := inbound()
	msg.ProviderMessageID = ""

	require.NoError(t, h.processor.Process(context.Background(), msg))
	assert.Zero(t, h.engine.calls)
}
