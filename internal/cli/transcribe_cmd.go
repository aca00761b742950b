// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// transcribe_cmd.go - Voice transcription command for parley CLI.
//
// Command: transcribe
// Short:   Transcribe a WAV recording to text
//
// Examples:
//   parley transcribe note.wav          Print the transcript
//   parley transcribe note.wav --ask    Transcribe, then ask the result
//
// Requires voice.endpoint in config.toml. Silence is reported as such, not
// as an error.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// HandleTranscribeCommand handles the "transcribe" command.
func HandleTranscribeCommand(args Args) error {
	if args.File == "" {
		return &UsageError{Command: "transcribe", Reason: "a WAV file is required"}
	}

	app, err := BuildApp(args.Model)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Voice == nil || !app.Voice.Enabled() {
		return errors.New("voice transcription is not configured (set voice.endpoint)")
	}

	audio, err := os.ReadFile(args.File)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args.File, err)
	}

	text, err := app.Voice.Transcribe(context.Background(), audio, "audio/wav")
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		fmt.Println(infoStyle.Render("[No speech detected]"))
		return nil
	}

	if !args.Ask {
		fmt.Println(text)
		return nil
	}

	fmt.Fprintf(os.Stderr, "%s %s\n",
		infoStyle.Render("[Heard]"),
		commandStyle.Render(text))

	answer, cached, err := answerQuery(context.Background(), app, text)
	if err != nil {
		return err
	}
	displayResponse(answer)
	if !args.Quiet && cached {
		fmt.Fprintln(os.Stderr, infoStyle.Render("[Answered from cache]"))
	}
	return nil
}
