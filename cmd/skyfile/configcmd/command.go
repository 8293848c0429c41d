// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

// Package configcmd implements the "skyfile config" command group:
// interactive setup, inspection, and removal of the stored connection
// settings.
package configcmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/skyfile-dev/skyfile/cmd/skyfile/cli"
	"github.com/skyfile-dev/skyfile/lib/config"
	"github.com/skyfile-dev/skyfile/lib/secret"
)

// Command returns the "config" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Manage stored connection settings",
		Usage:   "skyfile config <subcommand> [flags]",
		Description: `Manage the config file holding the PDS service URL, account
identifier, and optionally the app password.

Settings resolve in precedence order: command-line flags, then
SKYFILE_* environment variables, then this file. The file is written
with 0600 permissions; prefer SKYFILE_PASSWORD_FILE over storing the
password here when other tools can read your config directory.`,
		Subcommands: []*cli.Command{
			setupCommand(),
			showCommand(),
			clearCommand(),
		},
	}
}

func setupCommand() *cli.Command {
	return &cli.Command{
		Name:    "setup",
		Summary: "Interactively write the config file",
		Usage:   "skyfile config setup",
		Description: `Prompt for the service URL, account identifier, and app password,
and write them to the config file. An empty answer keeps the current
value (or the default, for the service URL). Answering "n" to the
password question leaves the password out of the file; it is then
prompted per command or read from SKYFILE_PASSWORD_FILE.`,
		Examples: []cli.Example{
			{
				Description: "First-time setup",
				Command:     "skyfile config setup",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("setup takes no arguments, got %d", len(args))
			}
			return runSetup()
		},
	}
}

func runSetup() error {
	current, err := config.Load()
	if err != nil {
		return cli.FileSystem("%w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	service, err := promptLine(reader, "Service URL", firstNonEmpty(current.Service, config.DefaultService))
	if err != nil {
		return cli.Internal("reading input: %w", err)
	}

	identifier, err := promptLine(reader, "Account identifier (handle or DID)", current.Identifier)
	if err != nil {
		return cli.Internal("reading input: %w", err)
	}
	if identifier == "" {
		return cli.Validation("an account identifier is required")
	}

	next := &config.File{
		Service:    service,
		Identifier: identifier,
	}

	storePassword, err := cli.Confirm("store the app password in the config file?")
	if err != nil {
		return cli.Internal("reading input: %w", err)
	}
	if storePassword {
		password, err := secret.Prompt("App password: ")
		if err != nil {
			return cli.Auth("reading password: %w", err)
		}
		next.Password = password.String()
		password.Close()
	} else if current.Password != "" {
		cli.Noticef("removing the previously stored password")
	}

	if err := config.Save(next); err != nil {
		return cli.FileSystem("%w", err)
	}

	path, err := config.Path()
	if err != nil {
		return cli.Internal("%w", err)
	}
	cli.Successf("wrote %s", path)
	return nil
}

func showCommand() *cli.Command {
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "show",
		Summary: "Show the stored settings",
		Usage:   "skyfile config show [flags]",
		Description: `Print the config file location and its contents. The password is
never printed, only whether one is stored.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			output.AddFlag(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("show takes no arguments, got %d", len(args))
			}
			return runShow(&output)
		},
	}
}

// configView is the --json shape of "config show". The password never
// appears, only its presence.
type configView struct {
	Path        string `json:"path"`
	Service     string `json:"service,omitempty"`
	Identifier  string `json:"identifier,omitempty"`
	PasswordSet bool   `json:"passwordSet"`
}

func runShow(output *cli.JSONOutput) error {
	path, err := config.Path()
	if err != nil {
		return cli.Internal("%w", err)
	}
	file, err := config.LoadFile(path)
	if err != nil {
		return cli.FileSystem("%w", err)
	}

	view := configView{
		Path:        path,
		Service:     file.Service,
		Identifier:  file.Identifier,
		PasswordSet: file.Password != "",
	}
	if done, err := output.EmitJSON(view); done {
		return err
	}

	fmt.Printf("path:       %s\n", path)
	fmt.Printf("service:    %s\n", displayValue(file.Service, "(default: "+config.DefaultService+")"))
	fmt.Printf("identifier: %s\n", displayValue(file.Identifier, "(not set)"))
	if file.Password != "" {
		fmt.Printf("password:   (stored)\n")
	} else {
		fmt.Printf("password:   (not stored)\n")
	}
	return nil
}

func clearCommand() *cli.Command {
	var yes bool

	return &cli.Command{
		Name:    "clear",
		Summary: "Delete the config file",
		Usage:   "skyfile config clear [flags]",
		Description: `Delete the config file. Environment variables and flags are
unaffected. Clearing an absent file succeeds quietly.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("clear", pflag.ContinueOnError)
			flagSet.BoolVar(&yes, "yes", false, "skip the confirmation prompt")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("clear takes no arguments, got %d", len(args))
			}
			return runClear(yes)
		},
	}
}

func runClear(yes bool) error {
	path, err := config.Path()
	if err != nil {
		return cli.Internal("%w", err)
	}

	if !yes {
		confirmed, err := cli.Confirm(fmt.Sprintf("delete %s?", path))
		if err != nil {
			return cli.Internal("reading confirmation: %w", err)
		}
		if !confirmed {
			cli.Noticef("config kept")
			return nil
		}
	}

	if err := config.Clear(); err != nil {
		return cli.FileSystem("%w", err)
	}
	cli.Successf("removed %s", path)
	return nil
}

// promptLine asks for one line on stderr and returns the trimmed
// answer, or the current value when the answer is empty.
func promptLine(reader *bufio.Reader, label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(os.Stderr, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(os.Stderr, "%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return current, nil
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		return current, nil
	}
	return answer, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func displayValue(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
