// Package main implements a command line sanitizer, working locally or through the REST API of a
// sanitizer server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var server = flag.String("server", "",
	"base URL of sanitizer server, ex: http://localhost:9080; sanitizes locally when empty")
var verbose = flag.Bool("v", false, "log removals to stderr")

func main() {
	// Important top-level flags
	subcommands.ImportantFlag("server")

	// Setup standard helpers
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	// Setup my commands
	subcommands.Register(&htmlCmd{}, "")
	subcommands.Register(&cssCmd{}, "")
	subcommands.Register(&styleCmd{}, "")
	subcommands.Register(&mailCmd{}, "")
	subcommands.Register(&policyCmd{}, "")
	subcommands.Register(&historyCmd{}, "remote")

	// Parse and execute
	flag.Parse()
	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// input opens the named file, or stdin when name is empty or "-".
func input(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

// readInput reads all of the named file, see input.
func readInput(name string) (string, error) {
	r, err := input(name)
	if err != nil {
		return "", err
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	return string(b), err
}

func fatal(msg string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	return subcommands.ExitFailure
}

func usage(msg string) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, msg)
	return subcommands.ExitUsageError
}
