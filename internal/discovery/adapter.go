package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/masahif/seoplanner/internal/planner"
)

// Defaults used when AdapterConfig leaves a field zero
const (
	DefaultTimeout           = 60 * time.Second
	DefaultMaxAttempts       = 2
	DefaultRequestsPerMinute = 20
	DefaultRetryDelay        = time.Second
)

// AdapterConfig controls pacing, timeouts and retries of discovery calls
type AdapterConfig struct {
	Timeout           time.Duration // per attempt
	MaxAttempts       int           // including the first call
	RequestsPerMinute int
	RetryDelay        time.Duration // initial backoff interval
}

// Adapter implements planner.Discoverer on top of a Completer
type Adapter struct {
	completer Completer
	limiter   *rate.Limiter
	cfg       AdapterConfig
}

// NewAdapter creates a discovery adapter
func NewAdapter(c Completer, cfg AdapterConfig) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	return &Adapter{
		completer: c,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		cfg:       cfg,
	}
}

// Discover asks the model for a framework. Transport failures come back
// wrapped in planner.ErrAdapter after the bounded retry; an unparseable
// answer comes back as a low-confidence framework.
func (a *Adapter) Discover(ctx context.Context, info planner.BusinessInfo) (*planner.Framework, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if a.completer == nil {
		return nil, planner.ErrNoProvider
	}

	prompt, err := UserPrompt(info)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.cfg.RetryDelay

	attempt := 0
	raw, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		return a.call(ctx, prompt)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(a.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, d time.Duration) {
			slog.Warn("Discovery call failed, retrying", "attempt", attempt, "delay", d, "error", err)
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Error("Discovery failed", "business", info.BusinessName, "attempts", attempt, "error", err)
		return nil, fmt.Errorf("%w: %v", planner.ErrAdapter, err)
	}

	fw := ParseFramework(raw)
	if fw.Degraded() {
		slog.Warn("Discovery response could not be parsed", "business", info.BusinessName, "length", len(raw), "error", fw.ParseError)
	}
	return fw, nil
}

// call makes a single paced, time-limited completion request
func (a *Adapter) call(ctx context.Context, prompt string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", backoff.Permanent(err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	raw, err := a.completer.Complete(callCtx, SystemPrompt, prompt)
	switch {
	case err != nil && ctx.Err() != nil:
		return "", backoff.Permanent(ctx.Err())
	case err != nil && (permanent(err) || errors.Is(err, planner.ErrNoProvider)):
		return "", backoff.Permanent(err)
	case err != nil:
		return "", err
	case strings.TrimSpace(raw) == "":
		return "", errors.New("empty completion")
	}
	return raw, nil
}

var _ planner.Discoverer = (*Adapter)(nil)
