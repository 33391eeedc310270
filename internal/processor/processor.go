package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaflow/mesaflow-backend/internal/customers"
	"github.com/mesaflow/mesaflow-backend/internal/engine"
	"github.com/mesaflow/mesaflow-backend/internal/orders"
	"github.com/mesaflow/mesaflow-backend/internal/tenants"
	"github.com/mesaflow/mesaflow-backend/internal/transcript"
	"github.com/mesaflow/mesaflow-backend/internal/whatsapp"
	"github.com/mesaflow/mesaflow-backend/pkg/db/models"
	"github.com/mesaflow/mesaflow-backend/pkg/enums"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
	"github.com/mesaflow/mesaflow-backend/pkg/logger"
	"github.com/mesaflow/mesaflow-backend/pkg/metrics"
	"github.com/mesaflow/mesaflow-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type deduper interface {
	MarkEventProcessed(ctx context.Context, providerMessageID string, ttl time.Duration) (bool, error)
	ReleaseEvent(ctx context.Context, providerMessageID string) error
}

type stepper interface {
	Step(ctx context.Context, in engine.Input) (engine.Result, error)
}

type sender interface {
	Send(ctx context.Context, phoneNumberID, to, credentialRef string, reply types.Reply) (string, error)
}

// Options carries the tunables the processor reads from config.
type Options struct {
	// EventDedupTTL is how long a claimed provider message id stays claimed.
	EventDedupTTL time.Duration
	// SendTimeout bounds one outbound delivery attempt.
	SendTimeout time.Duration
}

// Processor drives one webhook message end to end: dedup, tenant
// resolution, state step, persistence, outbound delivery. It is the only
// component that writes conversations and orders.
type Processor struct {
	tenants    tenants.Repository
	customers  customers.Repository
	orders     orders.Repository
	transcript transcript.Repository
	engine     stepper
	sender     sender
	dedup      deduper
	tx         txRunner
	log        *logger.Logger
	metrics    *metrics.WebhookMetrics
	opts       Options
}

// New builds a processor over the full stack. Metrics may be nil.
func New(
	tenantRepo tenants.Repository,
	customerRepo customers.Repository,
	orderRepo orders.Repository,
	transcriptRepo transcript.Repository,
	eng stepper,
	send sender,
	dedup deduper,
	tx txRunner,
	log *logger.Logger,
	webhookMetrics *metrics.WebhookMetrics,
	opts Options,
) (*Processor, error) {
	if tenantRepo == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	if customerRepo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if transcriptRepo == nil {
		return nil, fmt.Errorf("transcript repository required")
	}
	if eng == nil {
		return nil, fmt.Errorf("engine required")
	}
	if send == nil {
		return nil, fmt.Errorf("sender required")
	}
	if dedup == nil {
		return nil, fmt.Errorf("event deduper required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.EventDedupTTL <= 0 {
		opts.EventDedupTTL = 7 * 24 * time.Hour
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	return &Processor{
		tenants:    tenantRepo,
		customers:  customerRepo,
		orders:     orderRepo,
		transcript: transcriptRepo,
		engine:     eng,
		sender:     send,
		dedup:      dedup,
		tx:         tx,
		log:        log,
		metrics:    webhookMetrics,
		opts:       opts,
	}, nil
}

// Process handles one inbound message. The returned error is non-nil only
// when the caller should surface a retryable failure to the provider;
// everything the provider must not redeliver (duplicates, unknown tenants,
// lost concurrency races) is absorbed and logged here.
func (p *Processor) Process(ctx context.Context, msg whatsapp.InboundMessage) error {
	started := time.Now()
	outcome := "ok"
	defer func() { p.metrics.ObserveDuration(outcome, time.Since(started)) }()

	p.metrics.IncReceived(string(msg.Type))
	ctx = p.log.WithEventID(ctx, msg.ProviderMessageID)

	if msg.ProviderMessageID == "" || msg.From == "" {
		outcome = "malformed"
		p.log.Warn(ctx, "dropping message without id or sender")
		return nil
	}
	if msg.Type == enums.MessageTypeUnsupported {
		outcome = "unsupported"
		p.log.Info(ctx, "unsupported message type acknowledged without processing")
		return nil
	}

	claimed, err := p.dedup.MarkEventProcessed(ctx, msg.ProviderMessageID, p.opts.EventDedupTTL)
	if err != nil {
		outcome = "dedup_error"
		p.metrics.IncFailure(string(pkgerrors.CodeDependency))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim event")
	}
	if !claimed {
		outcome = "duplicate"
		p.metrics.IncDuplicate()
		p.log.Info(ctx, "duplicate delivery acknowledged without processing")
		return nil
	}

	err = p.process(ctx, msg)
	if err == nil {
		return nil
	}

	outcome = "failed"
	p.metrics.IncFailure(string(codeOf(err)))
	if pkgerrors.Retryable(err) {
		// Give the provider's redelivery a chance to succeed.
		if releaseErr := p.dedup.ReleaseEvent(ctx, msg.ProviderMessageID); releaseErr != nil {
			p.log.Error(ctx, "release event claim", releaseErr)
		}
		return err
	}

	// Non-retryable failures are logged and acknowledged; redelivery
	// would fail the same way.
	p.log.Error(ctx, "message dropped", err)
	return nil
}

func (p *Processor) process(ctx context.Context, msg whatsapp.InboundMessage) error {
	restaurant, err := tenants.Resolve(ctx, p.tenants, msg.BusinessAccountID)
	if err != nil {
		return err
	}
	ctx = p.log.WithRestaurantID(ctx, restaurant.ID.String())

	customer, err := p.customers.GetOrCreateCustomer(ctx, restaurant.ID, msg.From, msg.ProfileName)
	if err != nil {
		return err
	}
	conversation, err := p.customers.GetOrCreateConversation(ctx, restaurant.ID, customer.ID)
	if err != nil {
		return err
	}
	ctx = p.log.WithConversationID(ctx, conversation.ID.String())

	wamid := msg.ProviderMessageID
	if _, err := p.transcript.Append(ctx, transcript.Entry{
		ConversationID:    conversation.ID,
		Direction:         enums.MessageDirectionInbound,
		MsgType:           msg.Type,
		Body:              inboundBody(msg),
		ProviderMessageID: &wamid,
	}); err != nil {
		return err
	}

	result, err := p.engine.Step(ctx, engine.Input{
		Restaurant:   restaurant,
		Customer:     customer,
		Conversation: conversation,
		Text:         msg.Text,
		ReplyID:      msg.ReplyID,
	})
	if err != nil {
		return err
	}

	reply := result.Reply
	if result.Draft != nil {
		order, commitErr := p.commitOrder(ctx, restaurant, customer, conversation, result)
		if commitErr != nil {
			if pkgerrors.IsCode(commitErr, pkgerrors.CodeConflict) {
				// A concurrent delivery won the conversation; our
				// order never existed. Say nothing.
				p.log.Warn(ctx, "order commit lost conversation race")
				return nil
			}
			if pkgerrors.Retryable(commitErr) {
				return commitErr
			}
			p.log.Error(ctx, "order commit failed", commitErr)
			reply = engine.CommitFailedReply()
			return p.deliver(ctx, restaurant, msg.From, conversation.ID, reply)
		}
		p.metrics.IncOrderPlaced()
		reply = engine.OrderPlacedReply(order, restaurant.Currency)
	} else {
		update := conversationUpdate(conversation, result)
		if err := p.customers.UpdateConversation(ctx, conversation.ID, update); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				// The losing writer discards its step entirely: no
				// state change, no reply.
				p.log.Warn(ctx, "step lost conversation race, discarded")
				return nil
			}
			return err
		}
	}

	return p.deliver(ctx, restaurant, msg.From, conversation.ID, reply)
}

// commitOrder persists the order snapshot and the conversation transition in
// one transaction; a lost version race rolls the order back too.
func (p *Processor) commitOrder(
	ctx context.Context,
	restaurant *models.Restaurant,
	customer *models.Customer,
	conversation *models.Conversation,
	result engine.Result,
) (*models.Order, error) {
	order := orders.FromCart(restaurant.ID, customer.ID, conversation.ID, *result.Draft)
	err := p.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := p.orders.WithTx(tx).CreateWithItems(ctx, order); err != nil {
			return err
		}
		return p.customers.WithTx(tx).UpdateConversation(ctx, conversation.ID, conversationUpdate(conversation, result))
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// deliver sends the reply and appends it to the transcript. By this point
// the conversation is already persisted, so a send failure is logged and
// absorbed rather than retried through the webhook.
func (p *Processor) deliver(ctx context.Context, restaurant *models.Restaurant, to string, conversationID uuid.UUID, reply types.Reply) error {
	sendCtx, cancel := context.WithTimeout(ctx, p.opts.SendTimeout)
	defer cancel()

	providerID, err := p.sender.Send(sendCtx, restaurant.BusinessAccountID, to, restaurant.CredentialRef, reply)
	if err != nil {
		p.log.Error(ctx, "send reply", err)
		p.metrics.IncFailure(string(codeOf(err)))
		return nil
	}
	p.metrics.IncReply(string(reply.Kind))

	if _, err := p.transcript.Append(ctx, transcript.Entry{
		ConversationID:    conversationID,
		Direction:         enums.MessageDirectionOutbound,
		MsgType:           outboundMsgType(reply.Kind),
		Body:              map[string]any{"kind": string(reply.Kind), "text": reply.Text},
		ProviderMessageID: &providerID,
	}); err != nil {
		p.log.Error(ctx, "record outbound message", err)
	}
	return nil
}

func conversationUpdate(conversation *models.Conversation, result engine.Result) customers.ConversationUpdate {
	return customers.ConversationUpdate{
		State:           result.State,
		Context:         result.Context,
		Cart:            result.Cart,
		ExpectedVersion: conversation.Version,
		LastMessageAt:   time.Now().UTC(),
	}
}

func inboundBody(msg whatsapp.InboundMessage) map[string]any {
	body := map[string]any{"type": string(msg.Type)}
	if msg.Text != "" {
		body["text"] = msg.Text
	}
	if msg.ReplyID != "" {
		body["reply_id"] = msg.ReplyID
	}
	return body
}

func outboundMsgType(kind types.ReplyKind) enums.MessageType {
	switch kind {
	case types.ReplyKindButtons, types.ReplyKindList:
		return enums.MessageTypeInteractive
	case types.ReplyKindImage:
		return enums.MessageTypeImage
	}
	return enums.MessageTypeText
}

func codeOf(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return pkgerrors.CodeInternal
}
