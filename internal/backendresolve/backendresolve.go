// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package backendresolve implements the Backend Resolver (C9): from a
// ParsedInput and the current directory, it constructs the Backend
// variant appropriate to what's available — explicit coordinates always
// reach for Combined (falling back to ApiOnly), auto-detection walks the
// enclosing git repository's remotes to decide between Combined and
// GitOnly — per the decision tree of spec §4.10.
package backendresolve

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	"github.com/davetashner/wtg/internal/backend"
	"github.com/davetashner/wtg/internal/ghapi"
	"github.com/davetashner/wtg/internal/ghauth"
	"github.com/davetashner/wtg/internal/localgit"
	"github.com/davetashner/wtg/internal/model"
	"github.com/davetashner/wtg/internal/queryparse"
	"github.com/davetashner/wtg/internal/repocache"
	"github.com/davetashner/wtg/internal/testable"
	"github.com/davetashner/wtg/internal/wtgerr"
)

// Options configures the auto-detection path used when the user supplied
// no explicit repository coordinates (no -r flag, no URL).
type Options struct {
	// AllowFetch mirrors the CLI's --fetch switch. Per spec §4.10 it is
	// only consulted for a locally-discovered user repository; a
	// remote/cached repo opened through internal/repocache always allows
	// fetch regardless of this flag.
	AllowFetch bool
	// Dir is the directory auto-detection starts walking upward from.
	// Empty means the process's current working directory.
	Dir string
}

// Result is what Resolve hands back: the constructed backend, the
// repository coordinates it settled on (zero value when no GitHub remote
// could be identified), and any soft notices collected while deciding.
type Result struct {
	Backend backend.Backend
	Coords  model.RepoCoords
	Notices []model.Notice
}

// Resolve builds the Backend variant appropriate to parsed.Coords + opts,
// following spec §4.10's decision tree.
func Resolve(ctx context.Context, parsed model.ParsedInput, opts Options) (Result, error) {
	if parsed.Coords != nil {
		return resolveExplicit(ctx, *parsed.Coords)
	}
	return resolveAutoDetect(opts)
}

// resolveExplicit implements §4.10 case (1): coordinates were given
// directly (a -r flag or a URL), so an API client is required and a cache
// entry is attempted; a cache failure degrades to ApiOnly rather than
// aborting, since the user's query can still be answered from the API
// alone.
func resolveExplicit(ctx context.Context, coords model.RepoCoords) (Result, error) {
	clients := ghauth.NewClients()
	api := ghapi.New(clients, coords)

	remoteURL := "https://github.com/" + coords.Owner + "/" + coords.Repo + ".git"
	entry, cacheNotices, err := repocache.OpenOrCreate(ctx, coords, remoteURL, true)
	notices := convertCacheNotices(cacheNotices)
	if err != nil {
		notices = append(notices, model.Notice{Kind: model.NoticeApiOnly, Detail: err.Error()})
		return Result{Backend: backend.ApiOnly{API: api}, Coords: coords, Notices: notices}, nil
	}

	lg, err := localgit.Open(entry.Opener(), entry.Dir)
	if err != nil {
		notices = append(notices, model.Notice{Kind: model.NoticeApiOnly, Detail: err.Error()})
		return Result{Backend: backend.ApiOnly{API: api}, Coords: coords, Notices: notices}, nil
	}

	b := backend.Combined{Git: backend.GitOnly{Repo: lg, Coords: coords, Cache: entry}, Api: backend.ApiOnly{API: api}}
	return Result{Backend: b, Coords: coords, Notices: notices}, nil
}

func convertCacheNotices(in []repocache.Notice) []model.Notice {
	out := make([]model.Notice, 0, len(in))
	for _, n := range in {
		out = append(out, model.Notice{Kind: cacheNoticeKind(n.Kind), Detail: n.Message})
	}
	return out
}

func cacheNoticeKind(kind string) model.NoticeKind {
	switch kind {
	case "CloningRepo":
		return model.NoticeCloningRepo
	case "CloneSucceeded":
		return model.NoticeCloneSucceeded
	case "CloneFallbackToBare":
		return model.NoticeCloneFallbackToBare
	case "ShallowRepoDetected":
		return model.NoticeShallowRepoDetected
	default:
		return model.NoticeCacheUpdateFailed
	}
}

// resolveAutoDetect implements §4.10 cases (2)-(6): find the enclosing
// local repository, classify its remotes, and pick GitOnly or Combined
// accordingly.
func resolveAutoDetect(opts Options) (Result, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Result{}, wtgerr.Wrap(wtgerr.KindIO, "resolving working directory", err)
		}
		dir = wd
	}

	root, err := findGitRoot(dir)
	if err != nil {
		return Result{}, wtgerr.New(wtgerr.KindNotInGitRepo, "no git repository found above "+dir)
	}

	raw, err := testable.RealGitOpener{}.PlainOpen(root)
	if err != nil {
		return Result{}, wtgerr.Wrap(wtgerr.KindGit, "opening "+root, err)
	}
	gitRemotes, err := raw.Remotes()
	if err != nil {
		return Result{}, wtgerr.Wrap(wtgerr.KindGit, "listing remotes", err)
	}

	lg, err := localgit.Open(testable.RealGitOpener{}, root)
	if err != nil {
		return Result{}, err
	}

	remotes := classifyRemotes(gitRemotes)

	if len(remotes) == 0 {
		return Result{
			Backend: backend.GitOnly{Repo: lg},
			Notices: []model.Notice{{Kind: model.NoticeNoRemotes}},
		}, nil
	}

	best := pickBestRemote(remotes)
	if best.isGitHub {
		clients := ghauth.NewClients()
		api := ghapi.New(clients, best.coords)
		// A user's own local repository is fetch-gated by the --fetch
		// switch, not "always allow fetch" like a repocache entry (§4.10's
		// note that AllowFetch is only propagated here, in case (2)).
		cache := repocache.ForLocalRepo(best.coords, root, best.url, opts.AllowFetch)
		b := backend.Combined{Git: backend.GitOnly{Repo: lg, Coords: best.coords, Cache: cache}, Api: backend.ApiOnly{API: api}}
		return Result{Backend: b, Coords: best.coords}, nil
	}

	distinctHosts := map[string]bool{}
	for _, r := range remotes {
		distinctHosts[r.host] = true
	}
	if len(distinctHosts) > 1 {
		return Result{
			Backend: backend.GitOnly{Repo: lg},
			Notices: []model.Notice{{Kind: model.NoticeMixedRemotes}},
		}, nil
	}

	return Result{
		Backend: backend.GitOnly{Repo: lg},
		Notices: []model.Notice{{Kind: model.NoticeUnsupportedHost, Detail: best.url}},
	}, nil
}

// findGitRoot walks upward from start looking for a ".git" entry (a
// directory for a normal clone, a file for a linked worktree), mirroring
// how `git` itself discovers the enclosing repository.
func findGitRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// remoteInfo is one classified git remote: its configured name, first URL,
// and — when the URL names a GitHub repository — the coordinates it
// resolved to.
type remoteInfo struct {
	name     string
	url      string
	coords   model.RepoCoords
	isGitHub bool
	host     string
}

func classifyRemotes(remotes []*gogit.Remote) []remoteInfo {
	out := make([]remoteInfo, 0, len(remotes))
	for _, r := range remotes {
		cfg := r.Config()
		if len(cfg.URLs) == 0 {
			continue
		}
		u := cfg.URLs[0]
		info := remoteInfo{name: cfg.Name, url: u, host: extractHost(u)}
		if coords, err := queryparse.ParseRepoCoords(u); err == nil {
			info.isGitHub = true
			info.coords = coords
		}
		out = append(out, info)
	}
	return out
}

// extractHost returns a best-effort host label for a remote URL, used to
// detect mixed-host setups (spec §4.10 case 5) and to annotate the
// UnsupportedHost notice (case 6). It handles both HTTP(S) URLs and the
// scp-like SSH syntax ("git@host:owner/repo").
func extractHost(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	if at := strings.Index(raw, "@"); at >= 0 {
		rest := raw[at+1:]
		if colon := strings.Index(rest, ":"); colon >= 0 {
			return strings.ToLower(rest[:colon])
		}
	}
	return strings.ToLower(raw)
}

// pickBestRemote sorts remotes by the priority rule of spec §4.10: a
// GitHub-hosted remote always outranks a non-GitHub one, and within each
// tier "upstream" outranks "origin" outranks everything else.
func pickBestRemote(remotes []remoteInfo) remoteInfo {
	best := remotes[0]
	bestScore := remoteScore(best)
	for _, r := range remotes[1:] {
		if s := remoteScore(r); s < bestScore {
			best, bestScore = r, s
		}
	}
	return best
}

func remoteScore(r remoteInfo) int {
	namePriority := 2
	switch r.name {
	case "upstream":
		namePriority = 0
	case "origin":
		namePriority = 1
	}
	hostTier := 1
	if r.isGitHub {
		hostTier = 0
	}
	return hostTier*10 + namePriority
}
