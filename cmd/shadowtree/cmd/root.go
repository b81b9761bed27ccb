// Package cmd implements the shadowtree CLI commands.
//
// The root command dispatches to subcommands (stress, serve, version).
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Short       string
	Long        string
	Usage       string
	Run         func(args []string) error
	SubCommands []*Command
}

var rootCmd = &Command{
	Name:  "shadowtree",
	Short: "shadowtree - concurrent shadow tree commits",
	Long: `shadowtree drives surfaces of immutable shadow trees and publishes
their edits with optimistic commits.

Use "shadowtree <command> --help" for more information about a command.`,
	Usage: "shadowtree [--config DIR] <command> [flags]",
}

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// stdout receives command output.
var stdout io.Writer = os.Stdout

// configDir is where the config file is looked up.
var configDir = "."

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	rootCmd.SubCommands = append(rootCmd.SubCommands, cmd)
}

// Execute runs the CLI with the given arguments.
func Execute(args []string) error {
	var filtered []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-h", "--help", "help":
			if len(filtered) == 0 {
				printHelp(rootCmd)
				return nil
			}
			filtered = append(filtered, arg)
		case "-v", "--version":
			if len(filtered) == 0 {
				return runVersion(nil)
			}
			filtered = append(filtered, arg)
		case "--config":
			if i+1 >= len(args) {
				return fmt.Errorf("--config requires a directory path")
			}
			configDir = args[i+1]
			i++
		default:
			if strings.HasPrefix(arg, "--config=") {
				configDir = strings.TrimPrefix(arg, "--config=")
				continue
			}
			filtered = append(filtered, arg)
		}
	}

	if len(filtered) == 0 {
		printHelp(rootCmd)
		return nil
	}

	name := filtered[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", name)
		printHelp(rootCmd)
		return fmt.Errorf("unknown command: %s", name)
	}

	cmdArgs := filtered[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(cmd)
			return nil
		}
	}
	return cmd.Run(cmdArgs)
}

func printHelp(cmd *Command) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", cmd.Usage)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Commands:")
	for _, sub := range cmd.SubCommands {
		fmt.Fprintf(stdout, "  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Flags:")
	fmt.Fprintln(stdout, "  -h, --help           Show help for a command")
	fmt.Fprintln(stdout, "  -v, --version        Show version information")
	fmt.Fprintln(stdout, "  --config DIR         Directory holding shadowtree.yaml or shadowtree.toml")
}

func printCommandHelp(cmd *Command) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", cmd.Usage)
}
