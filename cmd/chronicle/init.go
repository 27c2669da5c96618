package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
	"github.com/ersonp/lore-chronicle/internal/domain/ports"
	"github.com/ersonp/lore-chronicle/internal/infrastructure/config"
	"github.com/ersonp/lore-chronicle/internal/infrastructure/relationaldb/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new chronicle project",
		Long:  "Creates a .chronicle directory with default configuration and sets up the SQLite database.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	handler := handlers.NewInitHandler(func(cfg config.SQLiteConfig) (ports.RelationalDB, error) {
		repo, err := sqlite.NewRepository(cfg)
		if err != nil {
			return nil, err
		}
		return repo, nil
	})

	result, err := handler.Handle(cmd.Context(), cwd)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", result.ConfigPath)
	fmt.Printf("Created database: %s\n", result.DatabasePath)
	if result.AvatarRoot != "" {
		fmt.Printf("Avatar directory: %s\n", result.AvatarRoot)
	}
	fmt.Println("Chronicle initialized successfully!")
	fmt.Println("Use 'chronicle books create NAME' to start a book.")

	return nil
}
