// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Transcript search command for parley CLI.
//
// Command: history
// Short:   Search a user's transcript
//
// Examples:
//   parley history --user alice           Whole transcript
//   parley history --user alice rust      Entries mentioning rust
//
// The search runs against a SQLite index rebuilt from history.json on each
// invocation; the JSON transcript file remains the source of truth.

package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/parley/internal/auth"
	"github.com/jeranaias/parley/internal/history"
	"github.com/jeranaias/parley/internal/util"
)

// historySearchLimit caps how many entries one invocation prints.
const historySearchLimit = 100

// HandleHistoryCommand handles the "history" command.
func HandleHistoryCommand(args Args) error {
	if !IsTTY() && args.User == "" {
		return &UsageError{Command: "history", Reason: "--user is required for non-interactive use"}
	}

	app, err := BuildApp("")
	if err != nil {
		return err
	}
	defer app.Close()

	// Transcripts belong to a user; checking credentials keeps one local
	// account from casually paging through another's history.
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

	transcripts, err := app.Store.LoadHistory()
	if err != nil {
		return err
	}

	dir, err := app.Cfg.DataDir()
	if err != nil {
		return err
	}
	ix, err := history.Open(filepath.Join(dir, "history.db"))
	if err != nil {
		return fmt.Errorf("opening history index: %w", err)
	}
	defer ix.Close()

	if err := ix.Rebuild(transcripts); err != nil {
		return fmt.Errorf("rebuilding history index: %w", err)
	}

	term := strings.TrimSpace(args.Query)
	results, err := ix.Search(username, term, historySearchLimit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		if term == "" {
			fmt.Println(infoStyle.Render("[No transcript entries]"))
		} else {
			fmt.Println(infoStyle.Render(fmt.Sprintf("[No entries matching %q]", term)))
		}
		return nil
	}

	title := fmt.Sprintf("Transcript for %s", username)
	if term != "" {
		title = fmt.Sprintf("Transcript entries matching %q", term)
	}
	fmt.Println(headerStyle.Render(title))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))

	for _, r := range results {
		when := ""
		if !r.Timestamp.IsZero() {
			when = r.Timestamp.Format(time.DateTime)
		}
		answer := strings.ReplaceAll(r.Answer, "\n", " ")
		if r.Kind == "image" {
			answer = "[image] " + answer
		}
		fmt.Printf("  %3d. %s  %s\n", r.Position+1,
			promptStyle.Render(util.TruncateRunes(r.Query, 60)),
			infoStyle.Render(when))
		fmt.Printf("       %s\n", util.TruncateRunes(answer, 100))
	}

	fmt.Printf("\n%s %d entries\n", infoStyle.Render("Total:"), len(results))
	return nil
}
