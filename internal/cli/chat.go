// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for parley CLI.
//
// USABILITY: Markdown rendering and input history for better CLI experience
//
// Handles the "parley chat" command which provides an interactive REPL
// for a signed-in user. The TUI is the richer front end; this is the
// plain-terminal equivalent for ssh sessions and scripts.
//
// Command: chat
// Short:   Start an interactive chat session
//
// Examples:
//   parley chat                       Chat (username prompted)
//   parley chat --user alice          Chat as alice
//   parley chat --model llama3        Use specific model
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Clear the conversation and its saved transcript
//   /image PROMPT       Generate an image
//   /stats              Show cache statistics
//   /history            Show this session's turns
//   /quit, /q           Exit chat
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/parley/internal/auth"
	"github.com/jeranaias/parley/internal/chat"
	"github.com/jeranaias/parley/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI(dataDir string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dataDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// replState holds everything the REPL loop needs.
type replState struct {
	app     *AppContext
	session *chat.Session
	input   *ChatCLI
	quiet   bool
	start   time.Time
	queries int
}

// HandleChatCommand handles the "chat" command with full interactive support.
func HandleChatCommand(args Args) error {
	if !IsTTY() {
		return &UsageError{Command: "chat", Reason: "requires an interactive terminal"}
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

	// Sign in before anything touches a transcript.
	username, err := resolveUsername(args.User)
	if err != nil {
		return err
	}
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	gate := auth.NewGate(app.Store)
	if err := gate.Authenticate(username, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return errors.New("invalid username or password")
		}
		return err
	}

	dir, err := app.Cfg.DataDir()
	if err != nil {
		return err
	}

	session := chat.NewSession(username, app.Store)
	if err := session.Restore(); err != nil {
		fmt.Fprintf(os.Stderr, "%s could not load saved conversation: %v\n",
			warningStyle.Render("[Warning]"), err)
	}

	state := &replState{
		app:     app,
		session: session,
		input:   NewChatCLI(dir),
		quiet:   args.Quiet,
		start:   time.Now(),
	}
	defer state.input.Close()

	if !state.quiet {
		printWelcome(state, app.Ollama.Model())
	}

	// Main REPL loop using liner for input history
	for {
		input, err := state.input.ReadInput(promptStyle.Render("parley> "))
		if err != nil {
			// Ctrl+C, EOF (Ctrl+D) or read error - exit gracefully
			fmt.Println()
			printExitSummary(state)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, state)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !shouldContinue {
				printExitSummary(state)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(state)
			return nil
		}

		if err := processMessage(ctx, state, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage submits a turn, answers it, and prints the result.
func processMessage(ctx context.Context, state *replState, input string) error {
	turn, err := state.session.Submit(input)
	if err != nil {
		return err
	}

	hitsBefore := state.app.Responder.CacheStats().Hits
	start := time.Now()

	resolved, err := state.app.Responder.AnswerTurn(ctx, state.session, turn)
	if err != nil {
		return err
	}
	state.session.FinishPresenting()
	state.queries++

	fmt.Println()
	displayResponse(resolved.Response.Text)
	fmt.Println()

	if !state.quiet {
		source := "model"
		if state.app.Responder.CacheStats().Hits > hitsBefore {
			source = "cache"
		}
		fmt.Fprintf(os.Stderr, "%s %s | %s\n",
			infoStyle.Render("[Answered]"),
			commandStyle.Render(source),
			time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// generateImage submits an image turn and resolves it with the saved path.
func generateImage(ctx context.Context, state *replState, prompt string) error {
	if state.app.Images == nil || !state.app.Images.Enabled() {
		return errors.New("image generation is not configured (set image.endpoint)")
	}

	turn, err := state.session.Submit(prompt)
	if err != nil {
		return err
	}

	path, err := state.app.Images.Generate(ctx, prompt)
	if err != nil {
		if aerr := state.session.Abort(turn.ID); aerr != nil {
			return errors.Join(err, aerr)
		}
		return err
	}

	if _, err := state.session.Resolve(turn.ID, chat.ImageResponse(path)); err != nil {
		return err
	}
	state.session.FinishPresenting()
	state.queries++

	fmt.Printf("%s image saved to %s\n",
		commandStyle.Render("[OK]"),
		commandStyle.Render(path))
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(cmd string, state *replState) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	rest := strings.TrimSpace(strings.TrimPrefix(cmd, parts[0]))

	switch command {
	case "/help", "/h", "/?":
		printChatHelp()
		return true, nil

	case "/clear", "/c":
		if err := state.session.Clear(); err != nil {
			return true, fmt.Errorf("clearing conversation: %w", err)
		}
		fmt.Println(commandStyle.Render("[Conversation cleared - saved transcript emptied]"))
		return true, nil

	case "/image", "/img":
		if rest == "" {
			return true, &UsageError{Command: "/image", Reason: "a prompt is required"}
		}
		return true, generateImage(context.Background(), state, rest)

	case "/stats":
		printCacheStats(state.app)
		return true, nil

	case "/history":
		printSessionTurns(state.session)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(state *replState, model string) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("parley interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("User:"),
		commandStyle.Render(state.session.Username()))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(model))
	if state.app.Cfg.Cache.Enabled {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Cache:"),
			commandStyle.Render(fmt.Sprintf("%d answers (threshold %d)",
				state.app.Cache.Len(), state.app.Cfg.Cache.Threshold)))
	} else {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Cache:"),
			warningStyle.Render("disabled"))
	}
	if n := len(state.session.Turns()); n > 0 {
		fmt.Printf("%s %s\n",
			infoStyle.Render("History:"),
			commandStyle.Render(fmt.Sprintf("%d saved turns (/history to review)", n)))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printChatHelp prints available commands.
func printChatHelp() {
	fmt.Println()
	fmt.Println(headerStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear the conversation and its saved transcript"},
		{"/image PROMPT", "Generate an image"},
		{"/stats", "Show cache statistics"},
		{"/history", "Show this session's turns"},
		{"/quit, /q", "Exit chat"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+D exits"))
	fmt.Println()
}

// printCacheStats prints fuzzy cache counters for the running session.
func printCacheStats(app *AppContext) {
	stats := app.Responder.CacheStats()

	fmt.Println()
	fmt.Println(headerStyle.Render("Cache Statistics"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Printf("  %s %d\n", infoStyle.Render("Answers:"), app.Cache.Len())
	if app.Cfg.Cache.Enabled {
		fmt.Printf("  %s %d\n", infoStyle.Render("Threshold:"), app.Cfg.Cache.Threshold)
	} else {
		fmt.Printf("  %s %s\n", infoStyle.Render("Threshold:"), warningStyle.Render("disabled"))
	}
	fmt.Printf("  %s %d hits, %d misses\n", infoStyle.Render("Lookups:"), stats.Hits, stats.Misses)
	fmt.Println()
}

// printSessionTurns prints this session's on-screen turns.
func printSessionTurns(session *chat.Session) {
	turns := session.Turns()
	if len(turns) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Session Turns"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, t := range turns {
		answer := "..."
		switch t.Response.Kind {
		case chat.ResponseText:
			answer = util.TruncateRunes(strings.ReplaceAll(t.Response.Text, "\n", " "), 80)
		case chat.ResponseImage:
			answer = "[image] " + t.Response.ImagePath
		}
		fmt.Printf("  %d. %s %s\n", i+1,
			promptStyle.Render("you:"),
			util.TruncateRunes(t.Query, 80))
		fmt.Printf("     %s %s\n",
			commandStyle.Render("parley:"),
			answer)
	}

	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(state *replState) {
	if state.queries == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	stats := state.app.Responder.CacheStats()
	elapsed := time.Since(state.start).Round(time.Second)

	fmt.Println()
	fmt.Println(headerStyle.Render("Session Summary"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))
	fmt.Printf("  %s %d\n", infoStyle.Render("Questions:"), state.queries)
	fmt.Printf("  %s %d hits, %d misses\n",
		infoStyle.Render("Cache:"), stats.Hits, stats.Misses)
	fmt.Printf("  %s %s\n", infoStyle.Render("Duration:"), elapsed.String())
	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}
