package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/spaolacci/murmur3"
	"golang.org/x/time/rate"

	"github.com/yndnr/supportform/internal/core/domain"
	"github.com/yndnr/supportform/internal/infra/clock"
	"github.com/yndnr/supportform/internal/telemetry/metric"
)

// Writing-assistance defaults.
const (
	DefaultAssistMinInterval = 2 * time.Second
	DefaultAssistMaxRetries  = 3
	DefaultAssistRetryDelay  = time.Second
	DefaultAssistCacheTTL    = 5 * time.Minute
	DefaultAssistTimeout     = 30 * time.Second
)

// AssistSystemPrompt frames every generation request.
const AssistSystemPrompt = "You help applicants write clear, honest descriptions for a social support " +
	"application. Answer in the first person, in a few concise sentences that still carry enough detail " +
	"for a caseworker."

var assistPrompts = map[domain.Field]string{
	domain.FieldFinancialSituation:      "Help me describe my current financial situation for a social support application.",
	domain.FieldEmploymentCircumstances: "Help me describe my employment circumstances for a social support application.",
	domain.FieldReasonForApplying:       "Help me explain why I need financial assistance for a social support application.",
}

// TextGenerator produces a completion for a system and user prompt.
type TextGenerator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AssistConfig tunes an AssistService.
type AssistConfig struct {
	MinInterval time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Timeout     time.Duration
}

// DefaultAssistConfig returns the default assistance settings.
func DefaultAssistConfig() AssistConfig {
	return AssistConfig{
		MinInterval: DefaultAssistMinInterval,
		MaxRetries:  DefaultAssistMaxRetries,
		RetryDelay:  DefaultAssistRetryDelay,
		CacheTTL:    DefaultAssistCacheTTL,
		Timeout:     DefaultAssistTimeout,
	}
}

// AssistService suggests text for the narrative fields.
type AssistService struct {
	wizard    *Wizard
	generator TextGenerator
	clock     clock.Clock
	cfg       AssistConfig
	limiter   *rate.Limiter
	logger    *slog.Logger
	metrics   *metric.Registry

	mu    sync.Mutex
	cache map[uint64]cachedSuggestion
}

type cachedSuggestion struct {
	text    string
	expires time.Time
}

// NewAssistService creates an AssistService. A nil generator yields a
// service whose Suggest reports domain.ErrAssistUnavailable.
func NewAssistService(wizard *Wizard, generator TextGenerator, cfg AssistConfig, logger *slog.Logger, metrics *metric.Registry) *AssistService {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultAssistConfig()
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &AssistService{
		wizard:    wizard,
		generator: generator,
		clock:     wizard.clock,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
		metrics:   metrics,
		cache:     make(map[uint64]cachedSuggestion),
	}
}

// Ready reports whether a generator is configured.
func (a *AssistService) Ready() bool {
	return a.generator != nil
}

// Prompt returns the user prompt sent for field with the applicant's
// own notes appended.
func Prompt(field domain.Field, notes string) string {
	base, ok := assistPrompts[field]
	if !ok {
		base = fmt.Sprintf("Help me write about %s.", field)
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		return base + " Context: " + notes
	}
	return base
}

// Suggest generates text for a narrative field. Identical requests within
// the cache TTL are answered from cache. Upstream calls are spaced by at
// least MinInterval and retried with a linearly growing delay.
func (a *AssistService) Suggest(ctx context.Context, field domain.Field, notes string) (string, error) {
	if !field.Narrative() {
		return "", domain.ErrAssistField.WithDetails(string(field))
	}
	if a.generator == nil {
		return "", domain.ErrAssistUnavailable
	}

	key := cacheKey(field, notes)
	if text, ok := a.cached(key); ok {
		a.metrics.RecordAssist("cache_hit")
		return text, nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		a.metrics.RecordAssist("rate_limited")
		return "", domain.ErrAssistRateLimited.WithCause(err)
	}

	prompt := Prompt(field, notes)
	attempt := 0
	op := func() (string, error) {
		attempt++
		actx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()

		text, err := a.generator.Complete(actx, AssistSystemPrompt, prompt)
		if err != nil {
			a.logger.Warn("suggestion attempt failed", "field", field, "attempt", attempt, "error", err)
			if !retryable(err) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", errors.New("empty completion")
		}
		return text, nil
	}

	text, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(&linearBackOff{step: a.cfg.RetryDelay}),
		backoff.WithMaxTries(uint(a.cfg.MaxRetries)),
	)
	if err != nil {
		a.metrics.RecordAssist("error")
		return "", domain.ErrAssistFailed.WithDetails(fmt.Sprintf("after %d attempts", attempt)).WithCause(err)
	}

	a.store(key, text)
	a.metrics.RecordAssist("generated")
	return text, nil
}

// Apply writes accepted text into a narrative field.
func (a *AssistService) Apply(field domain.Field, text string) error {
	if !field.Narrative() {
		return domain.ErrAssistField.WithDetails(string(field))
	}
	return a.wizard.UpdateFormData(domain.Patch{field: text})
}

func (a *AssistService) cached(key uint64) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.cache[key]
	if !ok {
		return "", false
	}
	if !a.clock.Now().Before(entry.expires) {
		delete(a.cache, key)
		return "", false
	}
	return entry.text, true
}

func (a *AssistService) store(key uint64, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	for k, entry := range a.cache {
		if !now.Before(entry.expires) {
			delete(a.cache, k)
		}
	}
	a.cache[key] = cachedSuggestion{text: text, expires: now.Add(a.cfg.CacheTTL)}
}

func cacheKey(field domain.Field, notes string) uint64 {
	h := murmur3.New64()
	_, _ = h.Write([]byte(field))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.TrimSpace(notes)))
	return h.Sum64()
}

// retryable reports whether err may succeed on another attempt. Errors
// that declare themselves non-temporary (for example an HTTP 401) are not
// retried.
func retryable(err error) bool {
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return true
}

// linearBackOff waits step, 2*step, 3*step, ... between attempts.
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}
