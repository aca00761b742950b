// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Account commands for parley CLI.
//
// Command: register
// Short:   Create an account
//
// Command: login
// Short:   Check credentials without starting a chat
//
// Examples:
//   parley register alice
//   parley login alice

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jeranaias/parley/internal/auth"
)

// HandleRegisterCommand handles the "register" command.
func HandleRegisterCommand(args Args) error {
	if !IsTTY() {
		return &UsageError{Command: "register", Reason: "requires an interactive terminal"}
	}

	username, err := resolveUsername(args.User)
	if err != nil {
		return err
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	app, err := BuildApp("")
	if err != nil {
		return err
	}
	defer app.Close()

	gate := auth.NewGate(app.Store)
	if err := gate.CreateAccount(username, password); err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return fmt.Errorf("username %q is taken", username)
		}
		return err
	}

	fmt.Printf("%s account %s created\n",
		commandStyle.Render("[OK]"),
		commandStyle.Render(username))
	return nil
}

// HandleLoginCommand handles the "login" command.
func HandleLoginCommand(args Args) error {
	if !IsTTY() {
		return &UsageError{Command: "login", Reason: "requires an interactive terminal"}
	}

	username, err := resolveUsername(args.User)
	if err != nil {
		return err
	}
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	app, err := BuildApp("")
	if err != nil {
		return err
	}
	defer app.Close()

	gate := auth.NewGate(app.Store)
	if err := gate.Authenticate(username, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return errors.New("invalid username or password")
		}
		return err
	}

	fmt.Printf("%s credentials for %s are valid\n",
		commandStyle.Render("[OK]"),
		commandStyle.Render(username))
	return nil
}

// resolveUsername returns the provided name or prompts for one.
func resolveUsername(provided string) (string, error) {
	username := strings.TrimSpace(provided)
	if username != "" {
		return username, nil
	}

	fmt.Print("Username: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading username: %w", err)
	}
	username = strings.TrimSpace(line)
	if username == "" {
		return "", &UsageError{Command: "register", Reason: "a username is required"}
	}
	return username, nil
}

// readPassword reads a password from stdin without echoing.
// SECURITY: Input is never echoed to the terminal.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(passBytes), nil
}
