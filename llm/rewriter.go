package llm

import (
	"context"
	"fmt"
)

// RequestRewriter adjusts a normalized request before the adapter shapes it
// into the wire payload. Rewriters handle provider quirks that are neither
// validation nor capability enforcement.
type RequestRewriter interface {
	// Rewrite returns the adjusted request, or an error to abort the call.
	Rewrite(ctx context.Context, req *ChatRequest) (*ChatRequest, error)

	// Name identifies the rewriter in logs and error messages.
	Name() string
}

// RewriterChain executes rewriters in order; the first failure aborts.
type RewriterChain struct {
	rewriters []RequestRewriter
}

// NewRewriterChain creates a chain over the given rewriters.
func NewRewriterChain(rewriters ...RequestRewriter) *RewriterChain {
	return &RewriterChain{rewriters: rewriters}
}

// Execute runs the chain. A nil or empty chain passes the request through.
func (c *RewriterChain) Execute(ctx context.Context, req *ChatRequest) (*ChatRequest, error) {
	if c == nil || len(c.rewriters) == 0 {
		return req, nil
	}
	var err error
	for _, rewriter := range c.rewriters {
		req, err = rewriter.Rewrite(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("rewriter [%s] failed: %w", rewriter.Name(), err)
		}
	}
	return req, nil
}

// Add appends a rewriter to the chain.
func (c *RewriterChain) Add(rewriter RequestRewriter) {
	c.rewriters = append(c.rewriters, rewriter)
}

// EmptyToolsCleaner clears ToolChoice when the tools list is empty, since
// upstream APIs reject tool_choice without tools.
type EmptyToolsCleaner struct{}

// NewEmptyToolsCleaner creates the cleaner.
func NewEmptyToolsCleaner() *EmptyToolsCleaner { return &EmptyToolsCleaner{} }

// Name implements RequestRewriter.
func (r *EmptyToolsCleaner) Name() string { return "empty_tools_cleaner" }

// Rewrite implements RequestRewriter.
func (r *EmptyToolsCleaner) Rewrite(_ context.Context, req *ChatRequest) (*ChatRequest, error) {
	if req == nil {
		return req, nil
	}
	if len(req.Tools) == 0 {
		req.ToolChoice = ""
	}
	return req, nil
}
