package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/librarian/internal/cli"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entrypoint"
	"github.com/mrlokans/librarian/internal/logger"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "seed":
		cmd = cli.NewSeedCommand(config.NewConfig())
	case "create-publisher":
		cmd = cli.NewCreatePublisherCommand(config.NewConfig())
	case "create-user":
		cmd = cli.NewCreateUserCommand(config.NewConfig())
	case "stats":
		cmd = cli.NewStatsCommand(config.NewConfig())
	case "version":
		fmt.Printf("librarian %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	logger.Init("warn", "console")

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve             Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  seed              Load a SQL dump or generate a random catalog\n")
	fmt.Fprintf(os.Stderr, "  create-publisher  Create a publisher\n")
	fmt.Fprintf(os.Stderr, "  create-user       Create a user and print their API token\n")
	fmt.Fprintf(os.Stderr, "  stats             Print books per publisher and author counts\n")
	fmt.Fprintf(os.Stderr, "  version           Print version information\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
