package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/pokecache/internal/application/handlers"
	"github.com/ersonp/pokecache/internal/domain/ports"
	"github.com/ersonp/pokecache/internal/infrastructure/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a pokecache workspace",
		Long:  "Creates a .pokecache directory with default configuration and prepares the record store schema.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	initHandler := handlers.NewInitHandler(func(cfg *config.Config) (ports.RecordStore, error) {
		return openStore(cfg, logger)
	})

	result, err := initHandler.Handle(cmd.Context(), cwd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", result.ConfigPath)
	if result.StoreDriver != config.DriverNone {
		fmt.Fprintf(out, "Record store ready (%s, %d records)\n", result.StoreDriver, result.StoreRecords)
	}
	fmt.Fprintln(out, "pokecache initialized successfully!")

	return nil
}
