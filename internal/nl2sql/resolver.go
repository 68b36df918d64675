package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/textsql/textsql/internal/observability"
)

var errModelNotConfigured = errors.New("model not configured")

// ModelLoader produces the generative translator. A nil loader means the
// resolver runs on the fallback rules only.
type ModelLoader func(ctx context.Context) (Translator, error)

type ResolverConfig struct {
	Loader ModelLoader
	Tables []string
	Logger *slog.Logger
	// RetryLoadAfter bounds how often a failed model load is retried.
	RetryLoadAfter time.Duration
}

// Resolution describes the SQL produced for one question and where it came
// from.
type Resolution struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

// Resolver turns questions into SQL. The model is loaded at most once and
// shared by all callers.
type Resolver struct {
	loader     ModelLoader
	tables     []string
	logger     *slog.Logger
	retryAfter time.Duration
	rules      RuleTranslator
	now        func() time.Time

	mu           sync.Mutex
	model        Translator
	loadErr      error
	loadFailedAt time.Time
}

func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	tables := append([]string(nil), cfg.Tables...)
	if len(tables) == 0 {
		tables = []string{defaultTable}
	}
	retryAfter := cfg.RetryLoadAfter
	if retryAfter <= 0 {
		retryAfter = time.Minute
	}
	return &Resolver{
		loader:     cfg.Loader,
		tables:     tables,
		logger:     logger,
		retryAfter: retryAfter,
		now:        time.Now,
	}
}

// Load loads the model eagerly. Resolve works without it.
func (r *Resolver) Load(ctx context.Context) error {
	_, err := r.loadModel(ctx)
	if errors.Is(err, errModelNotConfigured) {
		return nil
	}
	return err
}

// Resolve never fails: any model problem falls through to the rule table.
func (r *Resolver) Resolve(ctx context.Context, question string) Resolution {
	model, err := r.loadModel(ctx)
	if err != nil {
		return r.fallback(ctx, question, err)
	}

	result, err := translateSafely(ctx, model, Request{Question: question, Tables: r.tables})
	if err != nil {
		return r.fallback(ctx, question, fmt.Errorf("model inference: %w", err))
	}
	sql := strings.TrimSpace(result.SQL)
	if sql == "" {
		return r.fallback(ctx, question, errors.New("model returned empty SQL"))
	}

	observability.ObserveResolve(result.Provider)
	return Resolution{
		SQL:      sql,
		Provider: result.Provider,
		Model:    result.Model,
	}
}

func (r *Resolver) fallback(ctx context.Context, question string, cause error) Resolution {
	result, _ := r.rules.Translate(ctx, Request{Question: question, Tables: r.tables})
	if !errors.Is(cause, errModelNotConfigured) {
		r.logger.WarnContext(ctx, "falling back to rule-based sql",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("rule", result.Model),
			slog.Any("error", cause),
		)
	}
	observability.ObserveResolve(ProviderRules)
	return Resolution{
		SQL:      result.SQL,
		Provider: ProviderRules,
		Model:    result.Model,
		Fallback: true,
		Reason:   cause.Error(),
	}
}

func (r *Resolver) loadModel(ctx context.Context) (Translator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model != nil {
		return r.model, nil
	}
	if r.loader == nil {
		return nil, errModelNotConfigured
	}
	if r.loadErr != nil && r.now().Sub(r.loadFailedAt) < r.retryAfter {
		return nil, r.loadErr
	}

	model, err := loadSafely(ctx, r.loader)
	if err == nil && model == nil {
		err = errors.New("loader returned no model")
	}
	if err != nil {
		r.loadErr = fmt.Errorf("load model: %w", err)
		r.loadFailedAt = r.now()
		observability.IncrementModelLoadFailure()
		r.logger.ErrorContext(ctx, "model load failed", slog.Any("error", err))
		return nil, r.loadErr
	}

	r.model = model
	r.loadErr = nil
	r.logger.InfoContext(ctx, "model loaded")
	return model, nil
}

func loadSafely(ctx context.Context, loader ModelLoader) (model Translator, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			model = nil
			err = fmt.Errorf("loader panic: %v", recovered)
		}
	}()
	return loader(ctx)
}

func translateSafely(ctx context.Context, model Translator, req Request) (result Result, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("translator panic: %v", recovered)
		}
	}()
	return model.Translate(ctx, req)
}
