/*
Package llm is the normalization and resilience core of llmbridge.

It sits between application code and heterogeneous model provider APIs:
one canonical chat request goes in, the matching provider wire payload goes
out, the call is executed with transient-failure retry, and the provider's
answer, flat or streamed, comes back as one canonical response.

# Pipeline

Every call runs the same sequential pipeline:

	normalize → build payload → execute with retry → parse / aggregate

The [Normalizer] merges caller parameters with configured defaults through
the parameter [Schema], validates required fields, and enforces model
capability rules (reasoning families with fixed sampling temperature and no
parallel tool execution). An [Adapter] translates between the canonical
shapes and one provider wire format; the closed set of variants lives under
llm/providers and is selected once at construction time by llm/factory.
The [Executor] wraps the single HTTP call with exponential backoff on
classified-transient failures. For streaming calls the [Aggregator] folds
the ordered delta sequence back into one finalized [ChatResponse].

# Concurrency

A [Client] holds no mutable state across calls: configuration is read-only
after construction, so concurrent calls are independent. The per-delta
callback is invoked synchronously on the goroutine draining the stream and
must not block indefinitely, since it gates consumption of later deltas.

# Errors

Every failure surfaces as a *types.Error carrying a code, a retryability
flag and a human-readable diagnostic; nothing is swallowed. See the
[types.ErrorCode] taxonomy.
*/
package llm
