package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tensorlane/llmbridge/llm/observability"
	"github.com/tensorlane/llmbridge/types"
)

// RetryPolicy controls the transient-failure retry loop around one provider
// call. MaxRetries is the attempt budget beyond the initial attempt
// (0 = no retry); the delay before re-running attempt k is
// BaseBackoff * 2^k.
type RetryPolicy struct {
	MaxRetries  int           `yaml:"max_retries" json:"max_retries"`
	BaseBackoff time.Duration `yaml:"base_backoff" json:"base_backoff"`
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseBackoff: 500 * time.Millisecond}
}

// Delay returns the backoff before retrying after failed attempt k.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseBackoff << attempt
}

// Executor runs one wire request with transient-failure resilience. The
// loop is Idle → Attempting → {Success | TransientFailure | TerminalFailure}:
// a transient failure with budget remaining re-enters Attempting after the
// backoff delay, anything else terminates with a classified error.
//
// The backoff sleep blocks only the calling goroutine; concurrent calls
// through the same Executor are independent. No cancellation token is
// threaded beyond ctx itself; a caller wanting to abandon a call relies on
// the transport deadline, which also ends a backoff wait early.
type Executor struct {
	client   *http.Client
	policy   RetryPolicy
	provider string
	logger   *zap.Logger
	metrics  *observability.Metrics
	crash    observability.CrashReporter

	// sleep is a seam for tests; nil means the real timer.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an Executor for one provider.
func NewExecutor(client *http.Client, policy RetryPolicy, provider string, logger *zap.Logger) *Executor {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseBackoff <= 0 {
		policy.BaseBackoff = DefaultRetryPolicy().BaseBackoff
	}
	return &Executor{
		client:   client,
		policy:   policy,
		provider: provider,
		logger:   logger,
	}
}

// Do executes a non-streaming wire request and returns the response body.
//
// A 200 response with an empty body returns (nil, nil): "no response" is a
// distinct outcome the caller surfaces as a typed error at its own layer. A
// 200 response carrying an embedded error field is raised as a generic API
// error even though the transport saw no failure.
func (e *Executor) Do(ctx context.Context, wire *WireRequest) ([]byte, error) {
	resp, err := e.execute(ctx, wire)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		cerr := ClassifyTransportError(readErr, e.provider)
		e.recordError(ctx, cerr)
		return nil, cerr
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if msg, ok := InBandError(body); ok {
		cerr := types.NewError(types.ErrAPI,
			fmt.Sprintf("provider signalled failure inside a %d response: %s", resp.StatusCode, msg)).
			WithHTTPStatus(resp.StatusCode).WithProvider(e.provider)
		e.recordError(ctx, cerr)
		return nil, cerr
	}
	return body, nil
}

// DoStream executes a streaming wire request and hands back the open
// response body once the status line is healthy. The caller owns closing.
func (e *Executor) DoStream(ctx context.Context, wire *WireRequest) (io.ReadCloser, error) {
	resp, err := e.execute(ctx, wire)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// execute is the retry loop. Attempt 0 runs immediately; each classified
// transient failure with budget remaining sleeps BaseBackoff<<attempt and
// tries again.
func (e *Executor) execute(ctx context.Context, wire *WireRequest) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		e.metrics.RecordRequest(ctx, e.provider, wire.Method)
		resp, cerr := e.attempt(ctx, wire)
		if cerr == nil {
			return resp, nil
		}

		if !cerr.Retryable || attempt >= e.policy.MaxRetries {
			e.logger.Debug("call failed terminally",
				zap.String("provider", e.provider),
				zap.Int("attempt", attempt),
				zap.String("code", string(cerr.Code)))
			e.recordError(ctx, cerr)
			return nil, cerr
		}

		delay := e.policy.Delay(attempt)
		e.logger.Warn("transient failure, backing off",
			zap.String("provider", e.provider),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(cerr))
		e.metrics.RecordRetry(ctx, e.provider, attempt+1)
		observability.Report(e.crash, cerr, map[string]string{
			"provider": e.provider,
			"phase":    "transient",
		})

		if err := e.wait(ctx, delay); err != nil {
			e.recordError(ctx, err.(*types.Error))
			return nil, err
		}
	}
}

// attempt issues the HTTP request once and classifies any failure.
func (e *Executor) attempt(ctx context.Context, wire *WireRequest) (*http.Response, *types.Error) {
	httpReq, err := http.NewRequestWithContext(ctx, wire.Method, wire.URL, bytes.NewReader(wire.Body))
	if err != nil {
		return nil, types.NewError(types.ErrValidation,
			fmt.Sprintf("failed to build request: %v", err)).WithProvider(e.provider)
	}
	for k, vs := range wire.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		// No HTTP exchange to trace; the dedicated diagnostic says which
		// side of connect/response the failure fell on.
		return nil, ClassifyTransportError(err, e.provider)
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxTraceBody+1))
		resp.Body.Close()
		diagnostic := fmt.Sprintf("%s | %s",
			ExtractErrorMessage(body),
			FormatTrace(wire, resp.Status, resp.Header, body))
		return nil, MapHTTPError(resp.StatusCode, diagnostic, e.provider)
	}
	return resp, nil
}

// wait sleeps for the backoff delay, ending early when ctx does.
func (e *Executor) wait(ctx context.Context, d time.Duration) error {
	if e.sleep != nil {
		if err := e.sleep(ctx, d); err != nil {
			return e.abandoned(err)
		}
		return nil
	}
	select {
	case <-ctx.Done():
		return e.abandoned(ctx.Err())
	case <-time.After(d):
		return nil
	}
}

func (e *Executor) abandoned(cause error) error {
	code := types.ErrConnection
	if errors.Is(cause, context.DeadlineExceeded) {
		code = types.ErrTimeout
	}
	return types.NewError(code,
		fmt.Sprintf("call abandoned during retry backoff: %v", cause)).
		WithCause(cause).WithProvider(e.provider)
}

func (e *Executor) recordError(ctx context.Context, cerr *types.Error) {
	e.metrics.RecordError(ctx, e.provider, string(cerr.Code))
	if !cerr.Retryable {
		observability.Report(e.crash, cerr, map[string]string{
			"provider": e.provider,
			"phase":    "terminal",
		})
	}
}
