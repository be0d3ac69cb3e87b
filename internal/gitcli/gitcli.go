// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package gitcli shells out to the system git binary for operations go-git
// does not perform well or at all: blob-filtered clones, shallow fetches,
// and cheap remote-ref probes. The rest of wtg uses go-git for commit/tag/
// ancestry reads (internal/localgit), reserving this package for the few
// operations that are network- or protocol-bound.
package gitcli

import (
	"context"
	"fmt"
	"strings"

	"github.com/davetashner/wtg/internal/testable"
)

// executor is the package-level CommandExecutor used by every function below.
// It defaults to the real os/exec implementation.
var executor testable.CommandExecutor = testable.DefaultExecutor()

// SetExecutor replaces the package-level CommandExecutor. Pass nil to restore
// the default production executor. This is intended for testing.
func SetExecutor(e testable.CommandExecutor) {
	if e == nil {
		executor = testable.DefaultExecutor()
		return
	}
	executor = e
}

// Available returns nil if git is on PATH, or an error otherwise.
func Available() error {
	_, err := executor.LookPath("git")
	if err != nil {
		return fmt.Errorf("git not found on PATH: %w", err)
	}
	return nil
}

// Exec runs git with the given arguments in repoDir and returns combined stdout.
func Exec(ctx context.Context, repoDir string, args ...string) (string, error) {
	cmd := executor.CommandContext(ctx, "git", args...)
	cmd.Dir = repoDir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// CloneBareFiltered runs `git clone --filter=blob:none --bare <url> <dir>`.
// This is the fast path for populating the repo cache: it fetches all refs
// and commit/tree objects but defers blob content until something asks for
// it (which wtg, a metadata-only tool, rarely does).
func CloneBareFiltered(ctx context.Context, url, dir string) error {
	_, err := Exec(ctx, "", "clone", "--filter=blob:none", "--bare", url, dir)
	return err
}

// FetchAll runs `git fetch --all --tags --force --prune` in repoDir. Used to
// refresh an existing cache entry best-effort.
func FetchAll(ctx context.Context, repoDir string) error {
	_, err := Exec(ctx, repoDir, "fetch", "--all", "--tags", "--force", "--prune")
	return err
}

// FetchTags runs `git fetch --tags --force` in repoDir.
func FetchTags(ctx context.Context, repoDir string) error {
	_, err := Exec(ctx, repoDir, "fetch", "--tags", "--force")
	return err
}

// FetchCommit runs `git fetch --depth=1 <remote> <hash>` in repoDir.
func FetchCommit(ctx context.Context, repoDir, remote, hash string) error {
	_, err := Exec(ctx, repoDir, "fetch", "--depth=1", remote, hash)
	return err
}

// LsRemoteHasCommit probes whether hash is advertised by remote without
// downloading anything, by running `git ls-remote <remote> <hash>` and
// checking for non-empty output. Servers that reject arbitrary-SHA probing
// simply return no matching line, which this reports as "not found" — the
// caller's subsequent fetch attempt is the final word.
func LsRemoteHasCommit(ctx context.Context, remote, hash string) (bool, error) {
	out, err := Exec(ctx, "", "ls-remote", remote, hash)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// IsShallow runs `git rev-parse --is-shallow-repository` in repoDir.
func IsShallow(ctx context.Context, repoDir string) (bool, error) {
	out, err := Exec(ctx, repoDir, "rev-parse", "--is-shallow-repository")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "true", nil
}
