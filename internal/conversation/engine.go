package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/howtosavemytime-sys/chatbot-backend/internal/booking"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/observability/metrics"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/session"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/tenant"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

// OfferSentence is appended to the reply on the turn the booking offer fires.
const OfferSentence = "\n\nWould you like to book a 30-minute appointment with our representative?"

const (
	defaultCompletionTimeout = 20 * time.Second
	defaultHistoryLimit      = 20
	defaultMaxTokens         = 512
)

var engineTracer = otel.Tracer("chatbot-backend/internal/conversation")

var errEmptyCompletion = errors.New("conversation: completion returned no text")

// SlotSource returns bookable slots and the name of the provider that
// produced them. booking.Chain satisfies it.
type SlotSource interface {
	Lookup(ctx context.Context, limit int) ([]booking.Slot, string)
}

// Turn is one visitor message plus whatever the widget sent along with it.
type Turn struct {
	Message string
	Hints   session.Profile
	Tenant  tenant.Profile
	Images  []ImageAttachment
}

// TurnResult is what the widget gets back. Slots is nil unless Offered.
type TurnResult struct {
	Reply        string
	Slots        []booking.Slot
	Offered      bool
	FallbackUsed bool
}

// EngineConfig tunes an Engine. Zero values pick defaults.
type EngineConfig struct {
	Defaults          tenant.Profile
	Model             string
	HistoryLimit      int
	CompletionTimeout time.Duration
	Metrics           *metrics.ChatMetrics
}

// Engine runs the per-turn conversation logic against a held session.
type Engine struct {
	llm      LLMClient
	slots    SlotSource
	defaults tenant.Profile
	model    string
	limit    int
	timeout  time.Duration
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
}

func NewEngine(llm LLMClient, slots SlotSource, cfg EngineConfig, logger *logging.Logger) *Engine {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if slots == nil {
		slots = booking.NewChain(nil, 0, logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = defaultCompletionTimeout
	}
	defaults := cfg.Defaults
	if defaults.IsZero() {
		defaults = tenant.Default()
	}
	return &Engine{
		llm:      llm,
		slots:    slots,
		defaults: defaults,
		model:    cfg.Model,
		limit:    cfg.HistoryLimit,
		timeout:  cfg.CompletionTimeout,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// HandleTurn applies one visitor message to sess. The caller must hold the
// session exclusively. Upstream failures are absorbed into a fallback reply.
func (e *Engine) HandleTurn(ctx context.Context, sess *session.Session, turn Turn) TurnResult {
	ctx, span := engineTracer.Start(ctx, "conversation.turn")
	defer span.End()

	sess.Profile.Merge(turn.Hints)
	sess.AppendMessage(session.RoleUser, strings.TrimSpace(turn.Message), e.limit)
	sess.TurnCount++

	if !turn.Tenant.IsZero() {
		sess.Tenant = sess.Tenant.Merge(turn.Tenant)
	}
	effective := e.defaults.Apply(sess.Tenant)

	result := TurnResult{}
	reply, err := e.complete(ctx, sess, effective, turn.Images)
	if err != nil {
		uerr := &UpstreamError{Capability: CapabilityCompletion, Err: err}
		e.logger.Warn("completion failed, using fallback reply",
			"session_id", sess.ID,
			"capability", uerr.Capability,
			"error", uerr.Err,
		)
		e.metrics.ObserveUpstreamError(uerr.Capability)
		span.RecordError(uerr)
		reply = effective.Fallback()
		result.FallbackUsed = true
	}

	if sess.OfferState() == session.OfferEligible {
		sess.BookingOffered = true
		reply += OfferSentence
		slots, source := e.slots.Lookup(ctx, booking.DefaultLimit)
		result.Offered = true
		result.Slots = slots
		e.metrics.ObserveBookingOffer()
		e.metrics.ObserveSlotSource(source)
		e.logger.Info("booking offered", "session_id", sess.ID, "slot_source", source, "slots", len(slots))
	}

	sess.AppendMessage(session.RoleAssistant, reply, e.limit)
	result.Reply = reply

	outcome := "model"
	if result.FallbackUsed {
		outcome = "fallback"
	}
	e.metrics.ObserveTurn(outcome)
	span.SetAttributes(
		attribute.String("chatbot.session_id", sess.ID),
		attribute.Int("chatbot.turn", sess.TurnCount),
		attribute.Bool("chatbot.offered", result.Offered),
		attribute.Bool("chatbot.fallback", result.FallbackUsed),
	)
	return result
}

func (e *Engine) complete(ctx context.Context, sess *session.Session, t tenant.Profile, images []ImageAttachment) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	msgs := historyWindow(sess.Messages)

	start := time.Now()
	resp, err := e.llm.Complete(callCtx, LLMRequest{
		Model:       e.model,
		System:      []string{BuildSystemPrompt(t, sess.Profile)},
		Messages:    msgs,
		MaxTokens:   defaultMaxTokens,
		Temperature: -1,
		Images:      images,
	})
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = errEmptyCompletion
	}
	e.metrics.ObserveCompletionLatency(err == nil, time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// historyWindow converts stored history into completion messages. Trimming
// can leave an assistant turn first; Bedrock and Gemini reject a conversation
// that does not open with the user, so leading non-user entries are dropped.
func historyWindow(history []session.Message) []ChatMessage {
	start := 0
	for start < len(history) && history[start].Role != session.RoleUser {
		start++
	}
	msgs := make([]ChatMessage, 0, len(history)-start)
	for _, m := range history[start:] {
		msgs = append(msgs, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return msgs
}
