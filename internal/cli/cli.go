// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for parley.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdRegister
	CmdLogin
	CmdHistory
	CmdCache
	CmdImage
	CmdTranscribe
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	User    string
	Model   string

	// Command-specific
	Query      string
	File       string
	Subcommand string
	Ask        bool // transcribe: feed the transcript into the ask path
	Confirm    bool // cache clear: required confirmation flag

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `parley - authenticated local-LLM chat with a fuzzy answer cache

Parley is a single-user chat front end for a local Ollama model. Answers
are cached in a durable append-only log and served again for questions
that are close enough to one already asked.

Usage:
  parley                       Start TUI (default)
  parley ask "question"        Ask a single question (no transcript)
  parley chat                  Interactive chat in the terminal
  parley register [user]       Create an account
  parley login [user]          Check credentials
  parley history [term]        Search your transcript
  parley cache [stats|clear]   Cache management
  parley image "prompt"        Generate an image
  parley transcribe FILE       Transcribe a WAV recording
  parley config [show]         Show configuration
  parley version               Show version
  parley help                  Show this help

Chat Commands (during chat):
  /clear, /c          Clear the conversation and its saved transcript
  /stats              Show cache statistics
  /quit, /q           Exit chat
  Ctrl+D              Exit chat

Global Flags:
  -u, --user NAME     Username for commands that need a transcript
  -m, --model NAME    Override the configured model
  -q, --quiet         Minimal output
  -v, --verbose       Debug output

Examples:
  parley                              Start the TUI
  parley ask "capital of france"      One-shot question
  parley chat --user alice            Chat as alice (password prompted)
  parley history rust                 Transcript entries mentioning rust
  parley cache stats                  Cache size and hit rate
  parley cache clear --confirm        Drop every cached answer
  parley image "a lighthouse at dusk" Generate and save an image
  parley transcribe note.wav --ask    Transcribe, then ask the result

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("parley version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parsedArgs.Query = strings.Join(remaining, " ")
		return CmdAsk, parsedArgs

	case "chat":
		return CmdChat, parsedArgs

	case "register":
		if len(remaining) > 0 {
			parsedArgs.User = remaining[0]
		}
		return CmdRegister, parsedArgs

	case "login":
		if len(remaining) > 0 {
			parsedArgs.User = remaining[0]
		}
		return CmdLogin, parsedArgs

	case "history":
		parsedArgs.Query = strings.Join(remaining, " ")
		return CmdHistory, parsedArgs

	case "cache":
		parseCacheArgs(&parsedArgs, remaining)
		return CmdCache, parsedArgs

	case "image", "img":
		parsedArgs.Query = strings.Join(remaining, " ")
		return CmdImage, parsedArgs

	case "transcribe", "voice":
		parseTranscribeArgs(&parsedArgs, remaining)
		return CmdTranscribe, parsedArgs

	case "config":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command - treat it as a question for ask
		parsedArgs.Query = strings.Join(append([]string{cmd}, remaining...), " ")
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "-u", "--user":
			if i+1 < len(args) {
				i++
				parsedArgs.User = args[i]
			}
		case "-m", "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--user="):
				parsedArgs.User = strings.TrimPrefix(arg, "--user=")
			case strings.HasPrefix(arg, "--model="):
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseCacheArgs parses cache command specific arguments.
func parseCacheArgs(args *Args, remaining []string) {
	for _, arg := range remaining {
		switch arg {
		case "--confirm":
			args.Confirm = true
		default:
			if args.Subcommand == "" {
				args.Subcommand = arg
			}
		}
	}
	if args.Subcommand == "" {
		args.Subcommand = "stats"
	}
}

// parseTranscribeArgs parses transcribe command specific arguments.
func parseTranscribeArgs(args *Args, remaining []string) {
	for _, arg := range remaining {
		switch arg {
		case "--ask", "-a":
			args.Ask = true
		default:
			if args.File == "" {
				args.File = arg
			}
		}
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// ERROR HANDLING: Errors must not be silently ignored

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) {
	exitOnError(HandleAskCommand(args))
}

// HandleChat handles the "chat" command.
func HandleChat(args Args) {
	exitOnError(HandleChatCommand(args))
}

// HandleRegister handles the "register" command.
func HandleRegister(args Args) {
	exitOnError(HandleRegisterCommand(args))
}

// HandleLogin handles the "login" command.
func HandleLogin(args Args) {
	exitOnError(HandleLoginCommand(args))
}

// HandleHistory handles the "history" command.
func HandleHistory(args Args) {
	exitOnError(HandleHistoryCommand(args))
}

// HandleCache handles the "cache" command.
func HandleCache(args Args) {
	exitOnError(HandleCacheCommand(args))
}

// HandleImage handles the "image" command.
func HandleImage(args Args) {
	exitOnError(HandleImageCommand(args))
}

// HandleTranscribe handles the "transcribe" command.
func HandleTranscribe(args Args) {
	exitOnError(HandleTranscribeCommand(args))
}

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	exitOnError(HandleConfigCommand(args))
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}
