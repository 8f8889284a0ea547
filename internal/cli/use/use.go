// Package use holds all cli commands related to setting contextual information
// e.g., pizarra use ...
package use

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/pizarra/internal/cli"
	"github.com/thenoetrevino/pizarra/internal/user"
)

// EnvBoard selects the board for the current shell session
const EnvBoard = "PIZARRA_BOARD"

var validValue = regexp.MustCompile(`^[A-Za-z0-9._@-]+$`)

// UseCmd returns the use parent command
func UseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use",
		Short: "Manage contextual settings (board, user)",
		Long: `Set and manage contextual information for the current shell session.

The 'use' command prints shell commands that set environment variables
read by every other command, so flags need not be repeated.

Available contexts:
  - board: Set the board (store partition) to work on
  - user: Set who "me" refers to in --assignee

Examples:
  eval $(pizarra use board team-a)   # Use board team-a
  eval $(pizarra use board --clear)  # Back to the configured board
  pizarra use user --show            # Show who "me" is`,
	}

	cmd.AddCommand(contextCmd("board", EnvBoard, "board id", func() string {
		return os.Getenv(EnvBoard)
	}))
	cmd.AddCommand(contextCmd("user", user.EnvUser, "user id", func() string {
		return string(user.Current())
	}))

	return cmd
}

// contextCmd builds a subcommand exporting one environment variable
func contextCmd(name, env, what string, current func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " [" + what + "]",
		Short: fmt.Sprintf("Set the %s for the current shell session", name),
		Long: fmt.Sprintf(`Set the %[1]s for the current shell session.
This command outputs shell commands that should be evaluated:

  eval $(pizarra use %[1]s <%[2]s>)
  eval $(pizarra use %[1]s --clear)
  pizarra use %[1]s --show

The %[3]s environment variable will be set in your current shell
session only.`, name, what, env),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clearFlag, _ := cmd.Flags().GetBool("clear")
			showFlag, _ := cmd.Flags().GetBool("show")

			if showFlag {
				if v := current(); v != "" {
					fmt.Printf("Current %s: %s\n", name, v)
				} else {
					fmt.Printf("No %s context set\n", name)
				}
				return nil
			}

			if clearFlag {
				fmt.Printf("unset %s\n", env)
				fmt.Fprintf(os.Stderr, "Cleared %s context\n", name)
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("%w: %s required\nUsage: eval $(pizarra use %s <%s>)", cli.ErrUsage, what, name, what)
			}
			if !validValue.MatchString(args[0]) {
				return fmt.Errorf("%w: invalid %s %q", cli.ErrUsage, what, args[0])
			}

			fmt.Printf("export %s=%s\n", env, args[0])
			fmt.Fprintf(os.Stderr, "Now using %s %s\n", name, args[0])
			return nil
		},
	}

	cmd.Flags().Bool("clear", false, fmt.Sprintf("Clear the current %s context", name))
	cmd.Flags().Bool("show", false, fmt.Sprintf("Show the current %s context", name))

	return cmd
}
