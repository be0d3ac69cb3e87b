// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/wtg/internal/ghapi"
	"github.com/davetashner/wtg/internal/ghauth"
	"github.com/davetashner/wtg/internal/gitcli"
	"github.com/davetashner/wtg/internal/localgit"
	"github.com/davetashner/wtg/internal/model"
	"github.com/davetashner/wtg/internal/repocache"
	"github.com/davetashner/wtg/internal/testable"
	"github.com/davetashner/wtg/internal/wtgerr"
)

func initRepo(t *testing.T) (*localgit.Repo, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a\n"), 0o600))
	_, err = wt.Add("a.go")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "T", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	lg, err := localgit.Open(testable.RealGitOpener{}, dir)
	require.NoError(t, err)
	return lg, dir
}

// apiAdapterAgainst404 builds a ghapi.Adapter whose underlying client talks
// to a test server that 404s every request, so calls exercise the real
// retry/classification path without reaching the network.
func apiAdapterAgainst404(t *testing.T) *ghapi.Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	t.Cleanup(srv.Close)

	client := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	clients := &ghauth.Clients{Main: client}
	return ghapi.New(clients, model.RepoCoords{Owner: "o", Repo: "r"})
}

func TestGitOnly_FindCommitAndFile(t *testing.T) {
	lg, _ := initRepo(t)
	b := GitOnly{Repo: lg}

	head, err := lg.FindCommit("")
	// Empty prefix never matches a full hash and matches every commit as a
	// prefix, so this should resolve to the initial commit.
	require.NoError(t, err)
	assert.Equal(t, "initial", head.Subject)

	f, err := b.FindFile(context.Background(), "a.go")
	require.NoError(t, err)
	assert.Equal(t, "a.go", f.Path)
}

func TestGitOnly_UnsupportedCapabilities(t *testing.T) {
	b := GitOnly{}
	_, err := b.FindPR(context.Background(), 1)
	require.Error(t, err)
	kind, ok := wtgerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, wtgerr.KindUnsupported, kind)

	_, _, err = b.ClosingPRs(context.Background(), 1)
	require.Error(t, err)
}

func TestGitOnly_EnrichCommitIsNoop(t *testing.T) {
	b := GitOnly{}
	in := model.Commit{Hash: "abc"}
	out, err := b.EnrichCommit(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestGitOnly_ForRepoIsUnsupported(t *testing.T) {
	b := GitOnly{}
	sub := b.ForRepo(model.RepoCoords{Owner: "a", Repo: "b"})
	_, err := sub.FindCommit(context.Background(), "x")
	require.Error(t, err)
}

func TestCombined_FindCommitFallsBackToAPIWhenLocalMisses(t *testing.T) {
	lg, _ := initRepo(t)
	api := apiAdapterAgainst404(t)
	b := Combined{Git: GitOnly{Repo: lg}, Api: ApiOnly{API: api}}

	_, err := b.FindCommit(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	require.Error(t, err) // both local miss and API 404
}

func TestCombined_EnrichCommitTolerantOfAPIFailure(t *testing.T) {
	api := apiAdapterAgainst404(t)
	b := Combined{Api: ApiOnly{API: api}}

	in := model.Commit{Hash: "abc123", Subject: "local subject"}
	out, err := b.EnrichCommit(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out, "enrichment failure must not alter or error on the original commit")
}

func TestGitOnly_FindTag(t *testing.T) {
	lg, _ := initRepo(t)
	b := GitOnly{Repo: lg}
	_, err := b.FindTag(context.Background(), "no-such-tag")
	require.Error(t, err)
	kind, ok := wtgerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, wtgerr.KindNotFound, kind)
}

func TestGitOnly_FindReleaseForCommitPicksSemverOverPlain(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a\n"), 0o600))
	_, err = wt.Add("a.go")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "T", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	_, err = repo.CreateTag("staging", hash, nil)
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.0.0", hash, nil)
	require.NoError(t, err)

	lg, err := localgit.Open(testable.RealGitOpener{}, dir)
	require.NoError(t, err)
	b := GitOnly{Repo: lg, Coords: model.RepoCoords{Owner: "o", Repo: "r"}}

	tag, ok, err := b.FindReleaseForCommit(context.Background(), hash.String())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1.0.0", tag.Name, "semver tag must win over a non-semver tag on the same commit")
}

func TestGitOnly_FindReleaseForCommitNoneFound(t *testing.T) {
	lg, _ := initRepo(t)
	b := GitOnly{Repo: lg}
	_, ok, err := b.FindReleaseForCommit(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestURLBuilders(t *testing.T) {
	b := GitOnly{Coords: model.RepoCoords{Owner: "o", Repo: "r"}}
	assert.Equal(t, "https://github.com/o/r/commit/abc", b.CommitURL("abc"))
	assert.Equal(t, "https://github.com/o/r/tree/v1.0.0", b.TagURL(model.Tag{Name: "v1.0.0"}))
	url, ok := b.AuthorURLFromEmail("octocat@users.noreply.github.com")
	require.True(t, ok)
	assert.Equal(t, "https://github.com/octocat", url)
}

func TestGitOnly_FindCommitFallsBackToCacheEnsureCommit(t *testing.T) {
	lg, dir := initRepo(t)

	mock := &testable.MockCommandExecutor{
		CommandOutputs: map[string]string{
			"git ls-remote origin deadbeefdeadbeefdeadbeefdeadbeefdeadbeef": "",
		},
	}
	gitcli.SetExecutor(mock)
	t.Cleanup(func() { gitcli.SetExecutor(nil) })

	cache := repocache.ForLocalRepo(model.RepoCoords{Owner: "o", Repo: "r"}, dir, "origin", true)
	b := GitOnly{Repo: lg, Cache: cache}

	_, err := b.FindCommit(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	require.Error(t, err, "ls-remote miss must still end in NotFound")
	assert.True(t, cache.State().FetchedCommits["deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"],
		"a probed-and-missed hash must be recorded so it is never re-probed")
	for _, call := range mock.Calls {
		assert.NotContains(t, call, "fetch --depth=1", "a remote miss must never trigger a fetch")
	}
}

func TestCombined_ForRepoFallsBackToApiOnlyWithoutACache(t *testing.T) {
	api := apiAdapterAgainst404(t)
	b := Combined{Api: ApiOnly{API: api}}

	t.Setenv("HOME", t.TempDir())
	sub := b.ForRepo(model.RepoCoords{Owner: "octocat", Repo: "nonexistent-sibling-repo"})

	// No network access in this test, so the sibling clone can never
	// succeed; ForRepo must degrade to ApiOnly rather than a Combined with
	// a permanently nil Git.Repo, per §4.6.
	_, isApiOnly := sub.(ApiOnly)
	assert.True(t, isApiOnly, "ForRepo must fall back to ApiOnly when the sibling cache entry can't be opened")
}

func TestApiOnly_FindFileUnsupported(t *testing.T) {
	b := ApiOnly{}
	_, err := b.FindFile(context.Background(), "a.go")
	require.Error(t, err)
	kind, ok := wtgerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, wtgerr.KindUnsupported, kind)
}
