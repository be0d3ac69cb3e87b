// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

package repocache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/wtg/internal/gitcli"
	"github.com/davetashner/wtg/internal/model"
	"github.com/davetashner/wtg/internal/testable"
)

func newEntry(allowFetch bool) *Entry {
	return &Entry{
		Coords:     model.RepoCoords{Owner: "o", Repo: "r"},
		Dir:        "/tmp/wtg-test-repo",
		AllowFetch: allowFetch,
		state:      model.NewFetchState(),
	}
}

func TestEnsureCommit_LocalHitNeverTouchesNetwork(t *testing.T) {
	mock := &testable.MockCommandExecutor{DefaultError: "should not be called"}
	gitcli.SetExecutor(mock)
	t.Cleanup(func() { gitcli.SetExecutor(nil) })

	e := newEntry(true)
	want := model.NewCommit("abc123", "found locally", 0, "a", "a@example.com", model.Commit{}.Date)
	c, notices, err := e.EnsureCommit(context.Background(), "abc123", "origin", func(string) (model.Commit, error) {
		return want, nil
	})
	require.NoError(t, err)
	assert.Empty(t, notices)
	assert.Equal(t, want, c)
	assert.Empty(t, mock.Calls)
}

func TestEnsureCommit_FetchDisabledReturnsNotFound(t *testing.T) {
	e := newEntry(false)
	_, _, err := e.EnsureCommit(context.Background(), "deadbeef", "origin", func(string) (model.Commit, error) {
		return model.Commit{}, assertNotFoundErr
	})
	require.Error(t, err)
}

func TestEnsureCommit_AlreadySyncedSkipsRefetch(t *testing.T) {
	mock := &testable.MockCommandExecutor{DefaultError: "should not be called"}
	gitcli.SetExecutor(mock)
	t.Cleanup(func() { gitcli.SetExecutor(nil) })

	e := newEntry(true)
	e.state.FullMetadataSynced = true

	_, _, err := e.EnsureCommit(context.Background(), "deadbeef", "origin", func(string) (model.Commit, error) {
		return model.Commit{}, assertNotFoundErr
	})
	require.Error(t, err)
	assert.Empty(t, mock.Calls, "a fully-synced entry must not probe the network again")
}

func TestEnsureCommit_LsRemoteMissSkipsFetchAndMarksAttempted(t *testing.T) {
	mock := &testable.MockCommandExecutor{
		CommandOutputs: map[string]string{
			"git ls-remote origin deadbeef": "",
		},
	}
	gitcli.SetExecutor(mock)
	t.Cleanup(func() { gitcli.SetExecutor(nil) })

	e := newEntry(true)
	_, _, err := e.EnsureCommit(context.Background(), "deadbeef", "origin", func(string) (model.Commit, error) {
		return model.Commit{}, assertNotFoundErr
	})
	require.Error(t, err)
	assert.True(t, e.State().FetchedCommits["deadbeef"])
	for _, call := range mock.Calls {
		assert.NotContains(t, call, "fetch --depth=1", "a remote miss must not trigger a fetch")
	}
}

func TestEnsureCommit_FetchDisabledOnShallowRepoEmitsNotice(t *testing.T) {
	mock := &testable.MockCommandExecutor{
		CommandOutputs: map[string]string{
			"git rev-parse --is-shallow-repository": "true",
		},
	}
	gitcli.SetExecutor(mock)
	t.Cleanup(func() { gitcli.SetExecutor(nil) })

	e := newEntry(false)
	_, notices, err := e.EnsureCommit(context.Background(), "deadbeef", "origin", func(string) (model.Commit, error) {
		return model.Commit{}, assertNotFoundErr
	})
	require.Error(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, "ShallowRepoDetected", notices[0].Kind)
}

func TestEnsureTags_NoopWhenAlreadySynced(t *testing.T) {
	mock := &testable.MockCommandExecutor{DefaultError: "should not be called"}
	gitcli.SetExecutor(mock)
	t.Cleanup(func() { gitcli.SetExecutor(nil) })

	e := newEntry(true)
	e.state.TagsSynced = true
	require.NoError(t, e.EnsureTags(context.Background()))
	assert.Empty(t, mock.Calls)
}

func TestEnsureTags_FetchesOnceThenMarksSynced(t *testing.T) {
	mock := &testable.MockCommandExecutor{DefaultOutput: ""}
	gitcli.SetExecutor(mock)
	t.Cleanup(func() { gitcli.SetExecutor(nil) })

	e := newEntry(true)
	require.NoError(t, e.EnsureTags(context.Background()))
	assert.True(t, e.State().TagsSynced)
	assert.Len(t, mock.Calls, 1)

	require.NoError(t, e.EnsureTags(context.Background()))
	assert.Len(t, mock.Calls, 1, "a second call must be a no-op")
}

func TestState_FlagsAreMonotonic(t *testing.T) {
	e := newEntry(true)
	before := e.State()
	assert.False(t, before.FullMetadataSynced)

	e.mu.Lock()
	e.state.FullMetadataSynced = true
	e.mu.Unlock()

	after := e.State()
	assert.True(t, after.FullMetadataSynced)
}

var assertNotFoundErr = errNotFoundForTest{}

type errNotFoundForTest struct{}

func (errNotFoundForTest) Error() string { return "not found" }
