// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package repocache owns a cache directory of bare clones under the
// platform cache dir (wtg/repos/<owner>/<repo>), and the monotonic
// FetchState bookkeeping that decides when another network round trip is
// worth attempting (spec §4.3).
package repocache

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	gogit "github.com/go-git/go-git/v5"

	"github.com/davetashner/wtg/internal/gitcli"
	"github.com/davetashner/wtg/internal/model"
	"github.com/davetashner/wtg/internal/testable"
	"github.com/davetashner/wtg/internal/wtgerr"
)

// Notice is a soft diagnostic emitted during cache operations — it never
// aborts the run, but the caller may want to surface it (spec §4.10).
type Notice struct {
	Kind    string
	Message string
}

// Entry is one cache entry: a bare clone of coords, plus its in-memory
// FetchState. State is guarded by mu: all mutating operations acquire it
// briefly around the flag check and around the update, never across a
// subprocess call (per spec §9's "do not hold the lock across
// subprocess/await boundaries").
type Entry struct {
	Coords     model.RepoCoords
	Dir        string
	AllowFetch bool
	// Remote is what EnsureCommit's ls-remote probe and depth=1 fetch talk
	// to. A bare clone's configured remote is named "origin" by git
	// convention, but passing the clone/fetch URL directly works
	// identically and avoids re-reading remote config for it.
	Remote string

	mu    sync.Mutex
	state *model.FetchState
}

// CacheDir returns the platform cache directory for coords
// (wtg/repos/<owner>/<repo>), per spec §6.
func CacheDir(coords model.RepoCoords) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", wtgerr.Wrap(wtgerr.KindIO, "resolving platform cache directory", err)
	}
	return filepath.Join(base, "wtg", "repos", coords.Owner, coords.Repo), nil
}

// OpenOrCreate opens an existing cache entry (refreshing it best-effort) or
// clones a fresh one, per spec §4.3's open_or_create. remoteURL is the
// clone/fetch source (an HTTPS GitHub URL built from coords unless the
// caller overrides it).
func OpenOrCreate(ctx context.Context, coords model.RepoCoords, remoteURL string, allowFetch bool) (*Entry, []Notice, error) {
	dir, err := CacheDir(coords)
	if err != nil {
		return nil, nil, err
	}

	e := &Entry{Coords: coords, Dir: dir, AllowFetch: allowFetch, Remote: remoteURL, state: model.NewFetchState()}
	var notices []Notice

	if isGitRepo(dir) {
		if err := gitcli.FetchAll(ctx, dir); err != nil {
			notices = append(notices, Notice{Kind: "CacheUpdateFailed", Message: err.Error()})
		} else {
			e.state.FullMetadataSynced = true
			e.state.TagsSynced = true
		}
		return e, notices, nil
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, notices, wtgerr.Wrap(wtgerr.KindIO, "creating cache parent directory", err)
	}

	notices = append(notices, Notice{Kind: "CloningRepo", Message: remoteURL})
	if err := gitcli.CloneBareFiltered(ctx, remoteURL, dir); err != nil {
		notices = append(notices, Notice{Kind: "CloneFallbackToBare", Message: err.Error()})
		if _, cloneErr := gogit.PlainCloneContext(ctx, dir, true, &gogit.CloneOptions{URL: remoteURL}); cloneErr != nil {
			return nil, notices, wtgerr.Wrap(wtgerr.KindGit, "cloning "+remoteURL, cloneErr)
		}
	}
	notices = append(notices, Notice{Kind: "CloneSucceeded", Message: dir})
	e.state.FullMetadataSynced = true
	e.state.TagsSynced = true
	return e, notices, nil
}

func isGitRepo(dir string) bool {
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	_, err := gogit.PlainOpen(dir)
	return err == nil
}

// Opener returns the go-git opener (testable.RealGitOpener) for handing to
// internal/localgit.Open together with e.Dir; the opener itself carries no
// directory.
func (e *Entry) Opener() testable.GitOpener { return testable.RealGitOpener{} }

// ForLocalRepo wraps an already-discovered user repository (spec §4.10's
// auto-detection path) in an Entry so the same ensure_commit algorithm
// applies there as it does to a cache entry — the only difference being
// that a user's own repo is fetch-gated by the CLI's --fetch flag rather
// than being "always allow fetch" like a remote/cached repo (§4.3, §4.10).
func ForLocalRepo(coords model.RepoCoords, dir, remote string, allowFetch bool) *Entry {
	return &Entry{Coords: coords, Dir: dir, AllowFetch: allowFetch, Remote: remote, state: model.NewFetchState()}
}

// EnsureCommit implements spec §4.3's ensure_commit six-step algorithm:
// try a local lookup; bail out on synced/already-attempted state; bail out
// when fetching is disabled or the repo is shallow without opt-in; probe
// the remote cheaply via ls-remote; fetch --depth=1 only if the probe
// succeeds; retry the local lookup once.
//
// localLookup is injected by the caller (internal/localgit.Repo.FindCommit)
// so this package does not need to know go-git's commit-object shape.
func (e *Entry) EnsureCommit(ctx context.Context, hash, remote string, localLookup func(string) (model.Commit, error)) (model.Commit, []Notice, error) {
	var notices []Notice

	if c, err := localLookup(hash); err == nil {
		return c, notices, nil
	}

	e.mu.Lock()
	alreadyAttempted := e.state.FullMetadataSynced || e.state.FetchedCommits[hash]
	e.mu.Unlock()
	if alreadyAttempted {
		return model.Commit{}, notices, wtgerr.New(wtgerr.KindNotFound, "commit "+hash+" not found and not worth refetching")
	}

	if !e.AllowFetch {
		if shallow, serr := gitcli.IsShallow(ctx, e.Dir); serr == nil && shallow {
			notices = append(notices, Notice{Kind: "ShallowRepoDetected", Message: e.Dir})
		}
		return model.Commit{}, notices, wtgerr.New(wtgerr.KindNotFound, "commit "+hash+" not found locally and fetching is disabled")
	}

	found, err := gitcli.LsRemoteHasCommit(ctx, remote, hash)
	e.markAttempted(hash)
	if err != nil || !found {
		return model.Commit{}, notices, wtgerr.New(wtgerr.KindNotFound, "commit "+hash+" not advertised by remote")
	}

	if err := gitcli.FetchCommit(ctx, e.Dir, remote, hash); err != nil {
		return model.Commit{}, notices, wtgerr.Wrap(wtgerr.KindGit, "fetching commit "+hash, err)
	}

	c, err := localLookup(hash)
	if err != nil {
		return model.Commit{}, notices, wtgerr.New(wtgerr.KindNotFound, "commit "+hash+" still absent after fetch")
	}
	return c, notices, nil
}

func (e *Entry) markAttempted(hash string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.FetchedCommits[hash] = true
}

// EnsureTags implements spec §4.3's ensure_tags: a no-op once tags_synced
// or full_metadata_synced is set, otherwise a best-effort `fetch --tags`.
func (e *Entry) EnsureTags(ctx context.Context) error {
	e.mu.Lock()
	synced := e.state.TagsSynced || e.state.FullMetadataSynced
	e.mu.Unlock()
	if synced {
		return nil
	}

	if err := gitcli.FetchTags(ctx, e.Dir); err != nil {
		return wtgerr.Wrap(wtgerr.KindGit, "fetching tags", err)
	}

	e.mu.Lock()
	e.state.TagsSynced = true
	e.mu.Unlock()
	return nil
}

// State returns a snapshot of the entry's FetchState flags for inspection
// (tests, diagnostics) without exposing the live mutex-guarded value.
func (e *Entry) State() model.FetchState {
	e.mu.Lock()
	defer e.mu.Unlock()
	fetched := make(map[string]bool, len(e.state.FetchedCommits))
	for k, v := range e.state.FetchedCommits {
		fetched[k] = v
	}
	return model.FetchState{
		FullMetadataSynced: e.state.FullMetadataSynced,
		TagsSynced:         e.state.TagsSynced,
		FetchedCommits:     fetched,
	}
}
