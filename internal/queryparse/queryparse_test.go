// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

package queryparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/wtg/internal/model"
	"github.com/davetashner/wtg/internal/wtgerr"
)

func TestParse_PlainIdentifier(t *testing.T) {
	pi, err := Parse("deadbeef", "")
	require.NoError(t, err)
	assert.Nil(t, pi.Coords)
	assert.Equal(t, model.QueryUnknown, pi.Query.Kind)
	assert.Equal(t, "deadbeef", pi.Query.Token)
}

func TestParse_HashNumber_IsIssueOrPr(t *testing.T) {
	pi, err := Parse("#42", "")
	require.NoError(t, err)
	assert.Equal(t, model.QueryIssueOrPr, pi.Query.Kind)
	assert.Equal(t, uint64(42), pi.Query.Number)
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse("", "")
	require.Error(t, err)
	kind, ok := wtgerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, wtgerr.KindInputEmpty, kind)
}

func TestParse_ControlCharRejected(t *testing.T) {
	_, err := Parse("abc\x00def", "")
	require.Error(t, err)
	kind, ok := wtgerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, wtgerr.KindInputSecurityRejection, kind)
}

func TestParse_ExplicitRepoFlag(t *testing.T) {
	pi, err := Parse("deadbeef", "octocat/hello-world")
	require.NoError(t, err)
	require.NotNil(t, pi.Coords)
	assert.Equal(t, "octocat", pi.Coords.Owner)
	assert.Equal(t, "hello-world", pi.Coords.Repo)
	assert.Equal(t, model.QueryUnknown, pi.Query.Kind)
}

func TestParse_GitHubCommitURL(t *testing.T) {
	pi, err := Parse("https://github.com/octocat/hello-world/commit/deadbeefcafe", "")
	require.NoError(t, err)
	require.NotNil(t, pi.Coords)
	assert.Equal(t, model.RepoCoords{Owner: "octocat", Repo: "hello-world"}, *pi.Coords)
	assert.Equal(t, model.QueryGitCommit, pi.Query.Kind)
	assert.Equal(t, "deadbeefcafe", pi.Query.Hash)
}

func TestParse_GitHubIssueURL(t *testing.T) {
	pi, err := Parse("https://github.com/octocat/hello-world/issues/7", "")
	require.NoError(t, err)
	assert.Equal(t, model.QueryIssue, pi.Query.Kind)
	assert.Equal(t, uint64(7), pi.Query.Number)
}

func TestParse_GitHubPullURL(t *testing.T) {
	pi, err := Parse("https://github.com/octocat/hello-world/pull/99", "")
	require.NoError(t, err)
	assert.Equal(t, model.QueryPr, pi.Query.Kind)
	assert.Equal(t, uint64(99), pi.Query.Number)
}

func TestParse_GitHubBlobURL(t *testing.T) {
	pi, err := Parse("https://github.com/octocat/hello-world/blob/main/internal/foo/bar.go", "")
	require.NoError(t, err)
	assert.Equal(t, model.QueryFilePath, pi.Query.Kind)
	assert.Equal(t, "internal/foo/bar.go", pi.Query.Path)
}

func TestParse_GitHubTreeURL(t *testing.T) {
	pi, err := Parse("https://github.com/octocat/hello-world/tree/v1.0.0/docs", "")
	require.NoError(t, err)
	assert.Equal(t, model.QueryFilePath, pi.Query.Kind)
	assert.Equal(t, "docs", pi.Query.Path)
}

func TestParse_WWWPrefixNormalized(t *testing.T) {
	pi, err := Parse("https://www.github.com/octocat/hello-world/issues/1", "")
	require.NoError(t, err)
	assert.Equal(t, "octocat", pi.Coords.Owner)
}

func TestParse_ApiGitHubURL(t *testing.T) {
	coords, err := ParseRepoCoords("https://api.github.com/repos/octocat/hello-world")
	require.NoError(t, err)
	assert.Equal(t, "octocat", coords.Owner)
	assert.Equal(t, "hello-world", coords.Repo)
}

func TestParse_SSHRemote(t *testing.T) {
	coords, err := ParseRepoCoords("git@github.com:octocat/hello-world.git")
	require.NoError(t, err)
	assert.Equal(t, "octocat", coords.Owner)
	assert.Equal(t, "hello-world", coords.Repo)
}

func TestParse_OwnerSlashRepoShorthand(t *testing.T) {
	coords, err := ParseRepoCoords("octocat/hello-world")
	require.NoError(t, err)
	assert.Equal(t, "octocat", coords.Owner)
	assert.Equal(t, "hello-world", coords.Repo)
}

func TestParse_NonGitHubURL_FailsWithoutFallback(t *testing.T) {
	_, err := Parse("https://gitlab.com/octocat/hello-world/commit/deadbeef", "")
	require.Error(t, err)
	kind, ok := wtgerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, wtgerr.KindInputNotGitHubURL, kind)
}

func TestParse_MalformedGitHubURL(t *testing.T) {
	_, err := Parse("https://github.com/octocat/hello-world/unknown-route/1", "")
	require.Error(t, err)
	kind, ok := wtgerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, wtgerr.KindInputMalformedGitHubURL, kind)
}

// TestParse_RoundTrip covers universal invariant 1 (spec §8): parsing a
// GitHub URL recovers the same coordinates and route that constructed it.
func TestParse_RoundTrip(t *testing.T) {
	urls := map[string]model.Query{
		"https://github.com/a/b/commit/cafe":  model.GitCommitQuery("cafe"),
		"https://github.com/a/b/issues/3":     model.IssueQuery(3),
		"https://github.com/a/b/pull/4":       model.PrQuery(4),
		"https://github.com/a/b/blob/main/x":  model.FilePathQuery("x"),
	}
	for u, want := range urls {
		pi, err := Parse(u, "")
		require.NoError(t, err, u)
		assert.Equal(t, model.RepoCoords{Owner: "a", Repo: "b"}, *pi.Coords, u)
		assert.Equal(t, want, pi.Query, u)
	}
}

func TestValidateFilePath_RejectsAbsoluteAndParentDir(t *testing.T) {
	require.Error(t, ValidateFilePath(""))
	require.Error(t, ValidateFilePath("/etc/passwd"))
	require.Error(t, ValidateFilePath("../../etc/passwd"))
	require.Error(t, ValidateFilePath("a/../b"))
	require.NoError(t, ValidateFilePath("internal/foo/bar.go"))
}
