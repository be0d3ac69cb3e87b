// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

package localgit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/wtg/internal/testable"
)

func openTestRepo(t *testing.T, dir string) *Repo {
	t.Helper()
	r, err := Open(testable.RealGitOpener{}, dir)
	require.NoError(t, err)
	return r
}

func TestOpen_NotAGitRepo(t *testing.T) {
	_, err := Open(testable.RealGitOpener{}, t.TempDir())
	require.Error(t, err)
}

func TestFindCommit_FullHash(t *testing.T) {
	_, dir := initGoGitRepo(t, map[string]string{"a.go": "package a\n"})
	r := openTestRepo(t, dir)

	head := headHash(t, dir)
	c, err := r.FindCommit(head.String())
	require.NoError(t, err)
	assert.Equal(t, head.String(), c.Hash)
	assert.Equal(t, "initial commit", c.Subject)
}

func TestFindCommit_AbbreviatedHash(t *testing.T) {
	_, dir := initGoGitRepo(t, map[string]string{"a.go": "package a\n"})
	r := openTestRepo(t, dir)

	head := headHash(t, dir)
	c, err := r.FindCommit(head.String()[:7])
	require.NoError(t, err)
	assert.Equal(t, head.String(), c.Hash)
}

func TestFindCommit_NotFound(t *testing.T) {
	_, dir := initGoGitRepo(t, map[string]string{"a.go": "package a\n"})
	r := openTestRepo(t, dir)

	_, err := r.FindCommit("deadbeef")
	require.Error(t, err)
}

func TestFindFile_LastTouchAndPreviousAuthors(t *testing.T) {
	repo, dir := initGoGitRepo(t, map[string]string{"main.go": "package main\n"})
	now := time.Now()

	addCommitAs(t, repo, dir, "main.go", "package main\n// v2\n", "touch 2", now.Add(time.Hour), "Bob", "bob@example.com")
	addCommitAs(t, repo, dir, "main.go", "package main\n// v3\n", "touch 3", now.Add(2*time.Hour), "Carol", "carol@example.com")
	addCommitAs(t, repo, dir, "other.go", "package main\n", "unrelated", now.Add(3*time.Hour), "Dave", "dave@example.com")

	r := openTestRepo(t, dir)
	f, err := r.FindFile("main.go")
	require.NoError(t, err)

	assert.Equal(t, "main.go", f.Path)
	assert.Equal(t, "touch 3", f.LastCommit.Subject)
	require.Len(t, f.PreviousAuthors, 2)
	assert.Equal(t, "Bob", f.PreviousAuthors[0].Name)
	assert.Equal(t, "Test Author", f.PreviousAuthors[1].Name)
}

func TestFindFile_DetectsFilemodeOnlyChange(t *testing.T) {
	repo, dir := initGoGitRepo(t, map[string]string{"run.sh": "echo hi\n"})
	now := time.Now()

	path := filepath.Join(dir, "run.sh")
	require.NoError(t, os.Chmod(path, 0o755))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("run.sh")
	require.NoError(t, err)
	hash, err := wt.Commit("make executable", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Bob", Email: "bob@example.com", When: now.Add(time.Hour)},
	})
	require.NoError(t, err)

	r := openTestRepo(t, dir)
	f, err := r.FindFile("run.sh")
	require.NoError(t, err)
	assert.Equal(t, hash.String(), f.LastCommit.Hash, "a filemode-only change must count as a touch")
}

func TestFindFile_NotFound(t *testing.T) {
	_, dir := initGoGitRepo(t, map[string]string{"a.go": "package a\n"})
	r := openTestRepo(t, dir)

	_, err := r.FindFile("nope.go")
	require.Error(t, err)
}

func TestTags_AnnotatedAndLightweight(t *testing.T) {
	repo, dir := initGoGitRepo(t, map[string]string{"a.go": "package a\n"})
	head := headHash(t, dir)

	addTag(t, repo, "v1.0.0", head, true)
	addTag(t, repo, "v0.9.0-rc.1", head, false)

	r := openTestRepo(t, dir)
	tags, err := r.Tags()
	require.NoError(t, err)
	require.Len(t, tags, 2)

	byName := map[string]bool{}
	for _, tag := range tags {
		byName[tag.Name] = true
		assert.Equal(t, head.String(), tag.CommitHash)
		assert.True(t, tag.IsSemver(), tag.Name)
	}
	assert.True(t, byName["v1.0.0"])
	assert.True(t, byName["v0.9.0-rc.1"])
}

func TestTagsContainingCommit_AncestryWalk(t *testing.T) {
	repo, dir := initGoGitRepo(t, map[string]string{"a.go": "package a\n"})
	first := headHash(t, dir)

	second := addCommitAs(t, repo, dir, "a.go", "package a\n// v2\n", "second", time.Now(), "Bob", "bob@example.com")
	addTag(t, repo, "v1.0.0", second, true)

	r := openTestRepo(t, dir)
	all, err := r.Tags()
	require.NoError(t, err)

	containing, err := r.TagsContainingCommit(first.String(), all)
	require.NoError(t, err)
	require.Len(t, containing, 1)
	assert.Equal(t, "v1.0.0", containing[0].Name)
}

func headHash(t *testing.T, dir string) plumbing.Hash {
	t.Helper()
	repo, err := gogit.PlainOpen(dir)
	require.NoError(t, err)
	ref, err := repo.Head()
	require.NoError(t, err)
	return ref.Hash()
}
