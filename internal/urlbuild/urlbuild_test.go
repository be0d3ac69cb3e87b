// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

package urlbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davetashner/wtg/internal/model"
)

func TestCommitURL(t *testing.T) {
	coords := model.RepoCoords{Owner: "o", Repo: "r"}
	assert.Equal(t, "https://github.com/o/r/commit/abc123", CommitURL(coords, "abc123"))
}

func TestTagURL(t *testing.T) {
	coords := model.RepoCoords{Owner: "o", Repo: "r"}
	assert.Equal(t, "https://github.com/o/r/tree/v1.0.0", TagURL(coords, model.Tag{Name: "v1.0.0"}))
	assert.Equal(t, "https://github.com/o/r/releases/tag/v1.0.0",
		TagURL(coords, model.Tag{Name: "v1.0.0", IsRelease: true}))
}

func TestAuthorURLFromEmail(t *testing.T) {
	url, ok := AuthorURLFromEmail("octocat@users.noreply.github.com")
	assert.True(t, ok)
	assert.Equal(t, "https://github.com/octocat", url)

	url, ok = AuthorURLFromEmail("1234+octocat@users.noreply.github.com")
	assert.True(t, ok)
	assert.Equal(t, "https://github.com/octocat", url)

	_, ok = AuthorURLFromEmail("someone@example.com")
	assert.False(t, ok)
}
