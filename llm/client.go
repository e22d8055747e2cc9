package llm

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tensorlane/llmbridge/llm/observability"
	"github.com/tensorlane/llmbridge/llm/tokenizer"
	"github.com/tensorlane/llmbridge/types"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger sets the structured logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient sets the HTTP client used for provider calls, including
// its transport deadline. The deadline is the only abandonment mechanism
// threaded through a call besides ctx itself.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy overrides the transient-failure retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) { c.policy = policy }
}

// WithRateLimit throttles outgoing calls to rps requests per second with
// the given burst. Zero or negative rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithMetrics attaches the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCrashReporter attaches a crash reporter invoked on transient and
// terminal call failures.
func WithCrashReporter(r observability.CrashReporter) Option {
	return func(c *Client) { c.crash = r }
}

// WithRewriters appends request rewriters run after normalization.
func WithRewriters(rewriters ...RequestRewriter) Option {
	return func(c *Client) {
		for _, r := range rewriters {
			c.rewriters.Add(r)
		}
	}
}

// Client orchestrates one provider: normalize, rewrite, shape, execute with
// retries, parse or aggregate. It is safe for concurrent use; per-call state
// lives entirely on the stack of each call.
type Client struct {
	adapter    Adapter
	cfg        ProviderConfig
	normalizer *Normalizer
	exec       *Executor
	rewriters  *RewriterChain
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    *observability.Metrics
	crash      observability.CrashReporter
	httpClient *http.Client
	policy     RetryPolicy
}

// NewClient builds a Client around one adapter variant.
func NewClient(adapter Adapter, cfg ProviderConfig, opts ...Option) *Client {
	c := &Client{
		adapter:   adapter,
		cfg:       cfg,
		policy:    DefaultRetryPolicy(),
		rewriters: NewRewriterChain(NewEmptyToolsCleaner()),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.normalizer = NewNormalizer(adapter, cfg, c.logger)
	c.exec = NewExecutor(c.httpClient, c.policy, adapter.Name(), c.logger)
	c.exec.metrics = c.metrics
	c.exec.crash = c.crash
	return c
}

// Provider returns the adapter's provider name.
func (c *Client) Provider() string { return c.adapter.Name() }

// Chat runs one chat call end to end. When req.OnDelta is set the response
// is streamed: the handler observes every delta synchronously and the
// returned ChatResponse is the aggregate of the whole stream, identical in
// shape to a non-streaming result.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	model := ""
	if req != nil {
		model = req.Model
	}
	ctx, span := c.metrics.StartSpan(ctx, "llm.chat", c.adapter.Name(), model)
	defer span.End()
	start := time.Now()
	defer func() {
		c.metrics.RecordDuration(ctx, c.adapter.Name(), "chat", time.Since(start))
	}()

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	norm, err := c.normalizer.NormalizeChat(req)
	if err != nil {
		return nil, err
	}
	norm, err = c.rewriters.Execute(ctx, norm)
	if err != nil {
		return nil, err
	}
	if norm.RequestID == "" {
		norm.RequestID = uuid.NewString()
	}

	wire, err := c.adapter.BuildPayload(norm)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("issuing chat call",
		zap.String("provider", c.adapter.Name()),
		zap.String("request_id", norm.RequestID),
		zap.String("model", norm.Model),
		zap.Bool("stream", wire.Stream))

	if norm.OnDelta != nil {
		return c.chatStream(ctx, norm, wire)
	}

	body, err := c.exec.Do(ctx, wire)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, types.NewError(types.ErrNoResponse,
			"provider returned a successful status with an empty body").
			WithProvider(c.adapter.Name())
	}

	resp, err := c.adapter.ParseResponse(body)
	if err != nil {
		return nil, err
	}
	c.finishResponse(norm, resp)
	return resp, nil
}

// chatStream consumes the server-sent event stream, invoking the caller's
// handler for every delta before the next event is read, and reassembles
// the canonical response from the fragments.
func (c *Client) chatStream(ctx context.Context, norm *ChatRequest, wire *WireRequest) (*ChatResponse, error) {
	stream, err := c.exec.DoStream(ctx, wire)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	agg := NewAggregator()
	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		data := bytes.TrimSpace(line[len("data:"):])
		if len(data) == 0 {
			continue
		}
		if bytes.Equal(data, []byte("[DONE]")) {
			break
		}

		chunks, perr := c.adapter.ParseDelta(data)
		if perr != nil {
			c.logger.Warn("skipping malformed stream event",
				zap.String("provider", c.adapter.Name()),
				zap.Error(perr))
			continue
		}
		for _, chunk := range chunks {
			norm.OnDelta(chunk)
			agg.Add(chunk)
		}
	}
	if serr := scanner.Err(); serr != nil {
		return nil, ClassifyTransportError(serr, c.adapter.Name())
	}

	resp := agg.Finalize()
	if resp == nil {
		return nil, types.NewError(types.ErrNoResponse,
			"provider stream ended without any deltas").
			WithProvider(c.adapter.Name())
	}
	c.finishResponse(norm, resp)
	c.estimateUsage(norm, resp)
	return resp, nil
}

func (c *Client) finishResponse(norm *ChatRequest, resp *ChatResponse) {
	resp.Provider = c.adapter.Name()
	if resp.Model == "" {
		resp.Model = norm.Model
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now().UTC()
	}
}

// estimateUsage reconstructs usage totals locally when the stream carried
// none, marking them so callers can tell measured from estimated numbers.
func (c *Client) estimateUsage(norm *ChatRequest, resp *ChatResponse) {
	u := resp.Usage
	if u.PromptTokens > 0 || u.CompletionTokens > 0 || u.TotalTokens > 0 {
		return
	}

	counter := tokenizer.ForModel(norm.Model)
	msgs := make([]tokenizer.Message, 0, len(norm.Messages))
	for _, m := range norm.Messages {
		msgs = append(msgs, tokenizer.Message{Role: string(m.Role), Content: m.Text()})
	}
	prompt, err := counter.CountMessages(msgs)
	if err != nil {
		c.logger.Debug("token estimation failed", zap.Error(err))
		return
	}
	completion := 0
	for _, choice := range resp.Choices {
		n, cerr := counter.CountTokens(choice.Message.Text())
		if cerr != nil {
			c.logger.Debug("token estimation failed", zap.Error(cerr))
			return
		}
		completion += n
	}

	resp.Usage = ChatUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		Estimated:        true,
	}
}

func (c *Client) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return types.NewError(types.ErrTimeout, "rate limiter wait aborted: "+err.Error()).
			WithCause(err).WithProvider(c.adapter.Name())
	}
	return nil
}
