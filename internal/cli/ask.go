// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command for parley CLI.
//
// Command: ask
// Short:   Ask a single question without a transcript
//
// Examples:
//   parley ask "capital of france"
//   parley ask --model llama3 "explain goroutines"
//   echo "capital of france" | xargs parley ask
//
// The answer path matches interactive chat - fuzzy cache first, model on a
// miss, new answers appended to the cache log - but nothing is written to
// any user's transcript because no user is signed in.

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
// USABILITY: Renders markdown responses with syntax highlighting.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse displays a response with markdown rendering when appropriate.
// Only renders markdown when stdout is a TTY to avoid corrupting piped output.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Println(response)
	}
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAskCommand handles the "ask" command.
func HandleAskCommand(args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return &UsageError{Command: "ask", Reason: "a question is required"}
	}

	app, err := BuildApp(args.Model)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.Ollama.CheckRunning(ctx); err != nil {
		return fmt.Errorf("Ollama is not running. Start it with: ollama serve")
	}

	start := time.Now()
	answer, cached, err := answerQuery(ctx, app, query)
	if err != nil {
		return err
	}

	displayResponse(answer)

	if !args.Quiet {
		source := "model"
		if cached {
			source = "cache"
		}
		fmt.Fprintf(os.Stderr, "%s %s | %s\n",
			infoStyle.Render("[Answered]"),
			commandStyle.Render(source),
			time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// answerQuery resolves a query through the cache and the model, recording
// fresh answers in the cache log.
func answerQuery(ctx context.Context, app *AppContext, query string) (answer string, cached bool, err error) {
	if answer, ok := app.Cache.Lookup(query); ok {
		return answer, true, nil
	}

	answer, err = app.Ollama.Generate(ctx, query)
	if err != nil {
		return "", false, err
	}
	if err := app.Cache.Insert(query, answer); err != nil {
		return "", false, fmt.Errorf("recording answer: %w", err)
	}
	return answer, false, nil
}
