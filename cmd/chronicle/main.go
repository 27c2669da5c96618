// Package main provides the entry point for the chronicle CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0-dev"
	globalBook string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "chronicle",
		Short:         "Character relationships and story timelines for your books",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalBook, "book", "b", "", "Book to operate on (defaults to the current book)")

	rootCmd.AddCommand(
		newInitCmd(),
		newBooksCmd(),
		newCharactersCmd(),
		newChaptersCmd(),
		newScenesCmd(),
		newRelateCmd(),
		newRelationsCmd(),
		newImportCmd(),
		newExportCmd(),
		newTimelineCmd(),
		newServeCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
