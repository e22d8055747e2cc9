package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorlane/llmbridge/types"
)

type recordingRewriter struct {
	name string
	log  *[]string
	fail error
}

func (r *recordingRewriter) Name() string { return r.name }
func (r *recordingRewriter) Rewrite(_ context.Context, req *ChatRequest) (*ChatRequest, error) {
	*r.log = append(*r.log, r.name)
	if r.fail != nil {
		return nil, r.fail
	}
	return req, nil
}

func TestRewriterChain_ExecutesInOrder(t *testing.T) {
	var log []string
	chain := NewRewriterChain(
		&recordingRewriter{name: "first", log: &log},
		&recordingRewriter{name: "second", log: &log},
	)
	chain.Add(&recordingRewriter{name: "third", log: &log})

	req := chatReq("gpt-4o")
	out, err := chain.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, req, out)
	assert.Equal(t, []string{"first", "second", "third"}, log)
}

func TestRewriterChain_FirstFailureAborts(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	chain := NewRewriterChain(
		&recordingRewriter{name: "first", log: &log},
		&recordingRewriter{name: "second", log: &log, fail: boom},
		&recordingRewriter{name: "third", log: &log},
	)

	_, err := chain.Execute(context.Background(), chatReq("gpt-4o"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "second")
	assert.Equal(t, []string{"first", "second"}, log)
}

func TestRewriterChain_NilPassesThrough(t *testing.T) {
	var chain *RewriterChain
	req := chatReq("gpt-4o")
	out, err := chain.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, req, out)
}

func TestEmptyToolsCleaner(t *testing.T) {
	cleaner := NewEmptyToolsCleaner()

	req := chatReq("gpt-4o")
	req.ToolChoice = "auto"
	out, err := cleaner.Rewrite(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, out.ToolChoice)

	req = chatReq("gpt-4o")
	req.Tools = []types.ToolSchema{{Name: "f", Parameters: []byte(`{}`)}}
	req.ToolChoice = "auto"
	out, err = cleaner.Rewrite(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "auto", out.ToolChoice)
}
