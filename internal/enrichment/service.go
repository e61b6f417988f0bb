package enrichment

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/isndotbiz/spiritatlas/internal/conversation"
	"github.com/isndotbiz/spiritatlas/internal/insight"
	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

var serviceTracer = otel.Tracer("spiritatlas/enrichment")

const (
	defaultRequestTimeout = 60 * time.Second

	// summarizeTokenBudget triggers conversation summarization once the
	// estimated token count crosses it.
	summarizeTokenBudget = 3000

	maxHistoryTurns = 10
)

// Service is the upstream consumer surface: it routes enrichment requests,
// parses structured insights, and threads follow-up questions through
// conversation state.
type Service struct {
	router     *Router
	manager    *conversation.Manager
	metrics    *Metrics
	logger     *logging.Logger
	timeout    time.Duration
	keepRecent int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithKeepRecentTurns sets how many turns summarization keeps verbatim.
func WithKeepRecentTurns(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.keepRecent = n
		}
	}
}

func NewService(router *Router, manager *conversation.Manager, logger *logging.Logger, opts ...ServiceOption) *Service {
	if router == nil {
		panic("enrichment: router is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		router:     router,
		manager:    manager,
		logger:     logger,
		timeout:    defaultRequestTimeout,
		keepRecent: 6,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateEnrichment routes one profile-enrichment request and returns the
// provider's result plus the identity that served it.
func (s *Service) GenerateEnrichment(ctx context.Context, ec Context) (Result, string, error) {
	ctx, span := serviceTracer.Start(ctx, "Service.GenerateEnrichment",
		trace.WithAttributes(attribute.Int("enrichment.completed_fields", ec.CompletedFields)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	res, providerID, err := s.router.Generate(ctx, ec)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		s.metrics.observe(providerID, string(KindOf(err)), elapsed.Seconds())
		s.logger.Warn("enrichment failed", "provider", providerID, "kind", string(KindOf(err)), "error", err)
		return Result{}, providerID, err
	}
	s.metrics.observe(providerID, "ok", elapsed.Seconds())
	s.logger.Info("enrichment generated",
		"provider", providerID,
		"confidence", res.Confidence,
		"latency_ms", elapsed.Milliseconds())
	return res, providerID, nil
}

// DailyInsightRequest carries everything the daily-guidance prompt needs.
type DailyInsightRequest struct {
	ProfileID      string
	ProfileSummary string
	Date           time.Time
	PersonalYear   int
	PersonalMonth  int
	PersonalDay    int
}

// GenerateDailyInsight produces a structured daily insight. The parse step
// never fails; a degraded response yields defaults, not an error.
func (s *Service) GenerateDailyInsight(ctx context.Context, req DailyInsightRequest) (insight.DailyInsight, error) {
	ctx, span := serviceTracer.Start(ctx, "Service.GenerateDailyInsight",
		trace.WithAttributes(attribute.String("profile.id", req.ProfileID)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dateStr := req.Date.Format("Monday, January 2, 2006")
	userPrompt := DailyInsightPrompt(req.ProfileSummary, dateStr, req.PersonalYear, req.PersonalMonth, req.PersonalDay)

	start := time.Now()
	text, providerID, err := s.router.complete(ctx, SystemPrompt(), userPrompt, 0)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		s.metrics.observe(providerID, string(KindOf(err)), elapsed.Seconds())
		return insight.DailyInsight{}, err
	}
	s.metrics.observe(providerID, "ok", elapsed.Seconds())
	return insight.ParseDailyInsight(text, req.ProfileID, req.Date, req.PersonalYear, req.PersonalMonth, req.PersonalDay), nil
}

// GenerateCompatibility produces the parsed relationship dimensions for
// two profile summaries.
func (s *Service) GenerateCompatibility(ctx context.Context, profileA, profileB string, scores map[string]float64) (insight.Compatibility, error) {
	ctx, span := serviceTracer.Start(ctx, "Service.GenerateCompatibility")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, providerID, err := s.router.complete(ctx, SystemPrompt(), CompatibilityPrompt(profileA, profileB, scores), 0)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		s.metrics.observe(providerID, string(KindOf(err)), elapsed.Seconds())
		return insight.Compatibility{}, err
	}
	s.metrics.observe(providerID, "ok", elapsed.Seconds())
	return insight.ParseCompatibility(text), nil
}

// AskFollowUp answers a question in the context of a profile's active
// conversation. An unknown conversation id silently starts a fresh one
// rather than surfacing a not-found error to the end user.
func (s *Service) AskFollowUp(ctx context.Context, conversationID, profileID, question string) (string, *conversation.Conversation, error) {
	if s.manager == nil {
		return "", nil, fmt.Errorf("enrichment: conversation manager not configured")
	}
	ctx, span := serviceTracer.Start(ctx, "Service.AskFollowUp",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)))
	defer span.End()

	conv, err := s.manager.Load(ctx, conversationID)
	if err != nil {
		return "", nil, err
	}
	if conv == nil {
		conv, err = s.manager.Create(ctx, profileID, SystemPrompt())
		if err != nil {
			return "", nil, err
		}
	}

	conv, err = s.manager.AddUserMessage(ctx, conv.ID, question)
	if err != nil {
		return "", nil, err
	}

	entries := conversation.FormattedHistory(conv, maxHistoryTurns)
	history := make([]string, 0, len(entries))
	for _, e := range entries {
		history = append(history, e.String())
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	answer, providerID, err := s.router.complete(callCtx, SystemPrompt(), FollowUpPrompt(history, question, conv.SystemContext()), 0)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		s.metrics.observe(providerID, string(KindOf(err)), elapsed.Seconds())
		return "", conv, err
	}
	s.metrics.observe(providerID, "ok", elapsed.Seconds())

	conv, err = s.manager.AddAssistantResponse(ctx, conv.ID, answer)
	if err != nil {
		return answer, conv, err
	}

	if conv.EstimateTokens() > summarizeTokenBudget {
		if summarized, serr := s.manager.Summarize(ctx, conv.ID, s.keepRecent); serr != nil {
			s.logger.Warn("summarization failed", "conversation_id", conv.ID, "error", serr)
		} else {
			conv = summarized
		}
	}
	return answer, conv, nil
}
