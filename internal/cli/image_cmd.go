// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// image_cmd.go - Image generation command for parley CLI.
//
// Command: image
// Short:   Generate an image from a prompt
//
// Examples:
//   parley image "a lighthouse at dusk"
//
// Requires image.endpoint (and usually image.token) in config.toml.

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/parley/internal/imagegen"
)

// HandleImageCommand handles the "image" command.
func HandleImageCommand(args Args) error {
	prompt := strings.TrimSpace(args.Query)
	if prompt == "" {
		return &UsageError{Command: "image", Reason: "a prompt is required"}
	}

	app, err := BuildApp("")
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Images == nil || !app.Images.Enabled() {
		return errors.New("image generation is not configured (set image.endpoint)")
	}

	start := time.Now()
	path, err := app.Images.Generate(context.Background(), prompt)
	if err != nil {
		if imagegen.IsRateLimited(err) {
			return errors.New("image service rate limit reached; try again in a minute")
		}
		return err
	}

	fmt.Printf("%s image saved to %s\n",
		commandStyle.Render("[OK]"),
		commandStyle.Render(path))
	if !args.Quiet {
		fmt.Printf("%s %s\n",
			infoStyle.Render("[Elapsed]"),
			time.Since(start).Round(time.Millisecond))
	}
	return nil
}
