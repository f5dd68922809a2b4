package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/pokecache/internal/domain/response"
	"github.com/ersonp/pokecache/internal/domain/services"
)

// lookupFunc runs one resolution operation.
type lookupFunc func(ctx context.Context, svc *services.ResolutionService, args []string) *response.Envelope

func newRandomCmd() *cobra.Command {
	return newLookupCmd("random", "Fetch a random Pokemon", cobra.NoArgs,
		func(ctx context.Context, svc *services.ResolutionService, _ []string) *response.Envelope {
			return svc.Random(ctx)
		})
}

func newDailyCmd() *cobra.Command {
	return newLookupCmd("daily", "Fetch today's Pokemon", cobra.NoArgs,
		func(ctx context.Context, svc *services.ResolutionService, _ []string) *response.Envelope {
			return svc.Daily(ctx)
		})
}

func newSearchCmd() *cobra.Command {
	return newLookupCmd("search <name>", "Search Pokemon by exact or partial name", cobra.ExactArgs(1),
		func(ctx context.Context, svc *services.ResolutionService, args []string) *response.Envelope {
			return svc.Search(ctx, args[0])
		})
}

func newDetailsCmd() *cobra.Command {
	return newLookupCmd("details <id|name>", "Fetch one Pokemon by id or name", cobra.ExactArgs(1),
		func(ctx context.Context, svc *services.ResolutionService, args []string) *response.Envelope {
			return svc.Details(ctx, args[0])
		})
}

func newSuggestCmd() *cobra.Command {
	return newLookupCmd("suggest <query>", "Suggest Pokemon names containing query", cobra.ExactArgs(1),
		func(ctx context.Context, svc *services.ResolutionService, args []string) *response.Envelope {
			return svc.Suggestions(ctx, args[0])
		})
}

func newLookupCmd(use, short string, args cobra.PositionalArgs, fn lookupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				env := fn(cmd.Context(), d.Service, args)
				if d.Config.IsProduction() {
					env = env.Redacted()
				}
				if err := printEnvelope(cmd.OutOrStdout(), env); err != nil {
					return err
				}
				if !env.Success {
					return errors.New(env.Message)
				}
				return nil
			})
		},
	}
}

func printEnvelope(w io.Writer, env *response.Envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
