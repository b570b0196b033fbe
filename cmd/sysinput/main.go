// sysinput - System-wide autocomplete daemon
//
//	sysinput run              Run the daemon in the foreground
//	sysinput status           Show configuration and dictionary status
//	sysinput check-config     Validate the configuration file
//	sysinput version          Print the version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sysinput/internal/app"
	"sysinput/internal/config"
	"sysinput/internal/dictionary"
)

// version is stamped by the build.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "run":
		cmdRun()
	case "status":
		cmdStatus()
	case "check-config":
		cmdCheckConfig()
	case "version", "-v", "--version":
		fmt.Println("sysinput", version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`sysinput - System-wide Autocomplete

USAGE:
    sysinput <command> [options]

COMMANDS:
    run               Run the daemon in the foreground
    status            Show configuration and dictionary status
    check-config      Validate the configuration file
    version           Print the version
    help              Show this help message

The daemon observes keystrokes system-wide, keeps a local model of the
focused text field, and writes accepted completions back into it. Press
Ctrl+Space to accept the top suggestion for the word being typed.

PRIVACY NOTE:
    Typed content stays in memory. Log records redact every attribute
    carrying typed text by default (logging.redact_content).

Configuration is read from ` + config.ConfigPath() + `
(override with -config).`)
}

func cmdRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting sysinput: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== sysinput Status ===")
	fmt.Println()
	fmt.Printf("Config file:     %s\n", orDefault(*configPath, config.ConfigPath()))
	fmt.Printf("Data directory:  %s\n", config.PlatformDataDir())
	fmt.Printf("Log file:        %s\n", cfg.Logging.FilePath)
	fmt.Println()

	dict, err := dictionary.New(cfg.Dictionary.WordlistPath)
	if err != nil {
		fmt.Printf("Word list:       ERROR (%v)\n", err)
	} else {
		fmt.Printf("Word list:       %d words\n", dict.Len())
	}

	words, err := dictionary.LoadUserWordlist(cfg.Dictionary.UserWordlistPath)
	switch {
	case err != nil:
		fmt.Printf("User word list:  ERROR (%v)\n", err)
	case words == nil:
		fmt.Printf("User word list:  none (%s)\n", cfg.Dictionary.UserWordlistPath)
	default:
		fmt.Printf("User word list:  %d words\n", len(words))
	}

	if _, err := os.Stat(cfg.Dictionary.FrequencyDBPath); err == nil {
		fmt.Printf("Frequency store: %s\n", cfg.Dictionary.FrequencyDBPath)
	} else {
		fmt.Println("Frequency store: not yet created")
	}
}

func cmdCheckConfig() {
	fs := flag.NewFlagSet("check-config", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration:\n  %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Configuration OK")
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
