package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tensorlane/llmbridge/types"
)

// embedBatchSize is the largest input slice sent in one provider call.
const embedBatchSize = 64

// Embed runs one embedding call end to end.
func (c *Client) Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	model := ""
	if req != nil {
		model = req.Model
	}
	ctx, span := c.metrics.StartSpan(ctx, "llm.embed", c.adapter.Name(), model)
	defer span.End()
	start := time.Now()
	defer func() {
		c.metrics.RecordDuration(ctx, c.adapter.Name(), "embed", time.Since(start))
	}()

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	norm, err := c.normalizer.NormalizeEmbedding(req)
	if err != nil {
		return nil, err
	}

	wire, err := c.adapter.BuildEmbeddingPayload(norm)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("issuing embedding call",
		zap.String("provider", c.adapter.Name()),
		zap.String("model", norm.Model),
		zap.Int("inputs", len(norm.Input)))

	body, err := c.exec.Do(ctx, wire)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, types.NewError(types.ErrNoResponse,
			"provider returned a successful status with an empty body").
			WithProvider(c.adapter.Name())
	}

	resp, err := c.adapter.ParseEmbeddingResponse(body)
	if err != nil {
		return nil, err
	}
	resp.Provider = c.adapter.Name()
	if resp.Model == "" {
		resp.Model = norm.Model
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now().UTC()
	}
	return resp, nil
}

// EmbedDocuments embeds a document set of any size, fanning batches out
// concurrently and reassembling the vectors in input order. Usage totals
// are summed across batches.
func (c *Client) EmbedDocuments(ctx context.Context, model string, docs []string) (*EmbeddingResponse, error) {
	if len(docs) == 0 {
		return nil, types.NewError(types.ErrValidation, "document list must not be empty").
			WithProvider(c.adapter.Name())
	}

	type batch struct {
		offset int
		inputs []string
	}
	var batches []batch
	for offset := 0; offset < len(docs); offset += embedBatchSize {
		end := offset + embedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batches = append(batches, batch{offset: offset, inputs: docs[offset:end]})
	}

	results := make([]*EmbeddingResponse, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			resp, err := c.Embed(gctx, &EmbeddingRequest{Model: model, Input: b.inputs})
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &EmbeddingResponse{
		Provider:  c.adapter.Name(),
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}
	for bi, resp := range results {
		if out.Model == "" {
			out.Model = resp.Model
		}
		for _, d := range resp.Embeddings {
			out.Embeddings = append(out.Embeddings, EmbeddingData{
				Index:     batches[bi].offset + d.Index,
				Embedding: d.Embedding,
			})
		}
		out.Usage.PromptTokens += resp.Usage.PromptTokens
		out.Usage.TotalTokens += resp.Usage.TotalTokens
		out.Usage.Estimated = out.Usage.Estimated || resp.Usage.Estimated
	}
	return out, nil
}
