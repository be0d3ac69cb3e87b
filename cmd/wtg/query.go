// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/davetashner/wtg/internal/backendresolve"
	"github.com/davetashner/wtg/internal/queryparse"
	"github.com/davetashner/wtg/internal/render"
	"github.com/davetashner/wtg/internal/resolver"
	"github.com/davetashner/wtg/internal/wtgerr"
)

// runQuery wires the Input Parser, Backend Resolver, and Resolver together
// (spec §2): parse the positional identifier, pick a backend, walk it to an
// IdentifiedThing, then hand the result to the renderer.
func runQuery(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	parsed, err := queryparse.Parse(args[0], repoFlag)
	if err != nil {
		return exitError(ExitInvalidArgs, err)
	}

	ctx := cmd.Context()

	backendResult, err := backendresolve.Resolve(ctx, parsed, backendresolve.Options{AllowFetch: fetch})
	if err != nil {
		return exitError(ExitInvalidArgs, err)
	}
	for _, n := range backendResult.Notices {
		slog.Debug("backend resolution notice", "kind", int(n.Kind), "detail", n.Detail)
	}

	thing, notices, err := resolver.Resolve(ctx, backendResult.Backend, backendResult.Coords, parsed.Query)
	if err != nil {
		if kind, ok := wtgerr.KindOf(err); ok {
			slog.Debug("resolution failed", "kind", int(kind))
		}
		return exitError(ExitInvalidArgs, err)
	}
	for _, n := range notices {
		slog.Debug("resolver notice", "kind", int(n.Kind), "detail", n.Detail)
	}

	printer := render.NewPrinter(cmd.OutOrStdout(), noColor)
	printer.Render(thing, append(backendResult.Notices, notices...))
	return nil
}
