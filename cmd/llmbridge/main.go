// Command llmbridge is a small CLI over the client: one-shot chat or
// embedding calls against whichever provider the config selects.
//
// Usage:
//
//	llmbridge chat [-config llmbridge.yaml] [-model m] [-stream] "prompt"
//	llmbridge embed [-config llmbridge.yaml] [-model m] "text" ...
//	llmbridge version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/tensorlane/llmbridge/llm"
	"github.com/tensorlane/llmbridge/llm/factory"
	"github.com/tensorlane/llmbridge/types"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "chat":
		err = runChat(os.Args[2:])
	case "embed":
		err = runEmbed(os.Args[2:])
	case "version":
		fmt.Println("llmbridge " + version)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: llmbridge <chat|embed|version> [flags] args...")
}

func newClient(configPath, model string) (*llm.Client, error) {
	cfg, err := llm.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if model != "" {
		cfg.ChatModel = model
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return factory.NewClient(cfg, logger)
}

func runChat(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	model := fs.String("model", "", "override the configured chat model")
	stream := fs.Bool("stream", false, "stream the response to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("chat expects exactly one prompt argument")
	}

	client, err := newClient(*configPath, *model)
	if err != nil {
		return err
	}

	req := &llm.ChatRequest{
		Messages: []types.Message{types.NewUserMessage(fs.Arg(0))},
	}
	if *stream {
		req.OnDelta = func(chunk llm.StreamChunk) {
			fmt.Print(chunk.Content)
		}
	}

	resp, err := client.Chat(context.Background(), req)
	if err != nil {
		return err
	}
	if *stream {
		fmt.Println()
	} else {
		fmt.Println(resp.Text())
	}
	return nil
}

func runEmbed(args []string) error {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	model := fs.String("model", "", "override the embedding model")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("embed expects at least one text argument")
	}

	client, err := newClient(*configPath, "")
	if err != nil {
		return err
	}

	resp, err := client.Embed(context.Background(), &llm.EmbeddingRequest{
		Model: *model,
		Input: fs.Args(),
	})
	if err != nil {
		return err
	}
	for _, e := range resp.Embeddings {
		fmt.Printf("[%d] %d dimensions\n", e.Index, len(e.Embedding))
	}
	fmt.Printf("tokens: %d\n", resp.Usage.TotalTokens)
	return nil
}
