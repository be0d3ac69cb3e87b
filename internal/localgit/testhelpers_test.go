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
	"github.com/stretchr/testify/require"
)

func testAuthor(when time.Time) *object.Signature {
	return &object.Signature{Name: "Test Author", Email: "test@example.com", When: when}
}

// initGoGitRepo creates a new go-git repository in a temp directory with an
// initial commit containing the given files.
func initGoGitRepo(t *testing.T, files map[string]string) (*gogit.Repository, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		require.NoError(t, os.MkdirAll(filepath.Dir(absPath), 0o750))
		require.NoError(t, os.WriteFile(absPath, []byte(content), 0o600))
		_, err := wt.Add(relPath)
		require.NoError(t, err)
	}

	_, err = wt.Commit("initial commit", &gogit.CommitOptions{Author: testAuthor(time.Now())})
	require.NoError(t, err)

	return repo, dir
}

func addCommitAs(t *testing.T, repo *gogit.Repository, dir, file, content, msg string, when time.Time, authorName, authorEmail string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)

	absPath := filepath.Join(dir, file)
	require.NoError(t, os.MkdirAll(filepath.Dir(absPath), 0o750))
	require.NoError(t, os.WriteFile(absPath, []byte(content), 0o600))
	_, err = wt.Add(file)
	require.NoError(t, err)

	hash, err := wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: authorName, Email: authorEmail, When: when},
	})
	require.NoError(t, err)
	return hash
}

func addTag(t *testing.T, repo *gogit.Repository, name string, hash plumbing.Hash, annotated bool) {
	t.Helper()
	if !annotated {
		_, err := repo.CreateTag(name, hash, nil)
		require.NoError(t, err)
		return
	}
	_, err := repo.CreateTag(name, hash, &gogit.CreateTagOptions{
		Tagger:  testAuthor(time.Now()),
		Message: "release " + name,
	})
	require.NoError(t, err)
}
