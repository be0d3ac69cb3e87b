// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package urlbuild renders the github.com URLs wtg prints in its reports:
// commit permalinks, tag/release pages, and contributor profile links
// derived from noreply commit emails (spec §4.5, §6). Every function here
// is a pure string transform — no network access, no backend dependency —
// so the round-trip property in spec §8 can be checked directly against
// them.
package urlbuild

import (
	"net/url"
	"strings"

	"github.com/davetashner/wtg/internal/model"
)

// segment percent-encodes one path segment using url.PathEscape, which
// already leaves the conservative "safe" alphanumeric-plus-few-symbols set
// untouched and encodes everything else — matching spec §4.5's "each
// segment percent-encoded using a conservative alphabet".
func segment(s string) string {
	return url.PathEscape(s)
}

// CommitURL renders https://github.com/<owner>/<repo>/commit/<hash>.
func CommitURL(coords model.RepoCoords, hash string) string {
	return "https://github.com/" + segment(coords.Owner) + "/" + segment(coords.Repo) + "/commit/" + segment(hash)
}

// TagURL renders a tag's canonical page: /releases/tag/<name> when the tag
// is a GitHub release, /tree/<name> for a plain tag (spec §6).
func TagURL(coords model.RepoCoords, tag model.Tag) string {
	base := "https://github.com/" + segment(coords.Owner) + "/" + segment(coords.Repo)
	if tag.IsRelease {
		return base + "/releases/tag/" + segment(tag.Name)
	}
	return base + "/tree/" + segment(tag.Name)
}

// ProfileURL renders https://github.com/<owner>.
func ProfileURL(owner string) string {
	return "https://github.com/" + segment(owner)
}

// AuthorURLFromEmail derives a contributor profile URL from a
// "@users.noreply.github.com" commit email, which GitHub emits in one of
// two forms: "login@users.noreply.github.com" or
// "id+login@users.noreply.github.com". Any other email shape yields
// ok=false — there is no way to derive a profile URL from an arbitrary
// address.
func AuthorURLFromEmail(email string) (string, bool) {
	const suffix = "@users.noreply.github.com"
	lower := strings.ToLower(email)
	if !strings.HasSuffix(lower, suffix) {
		return "", false
	}
	local := email[:len(email)-len(suffix)]
	if local == "" {
		return "", false
	}
	if idx := strings.Index(local, "+"); idx >= 0 {
		login := local[idx+1:]
		if login == "" {
			return "", false
		}
		return ProfileURL(login), true
	}
	return ProfileURL(local), true
}
