// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package tagselect picks the single best tag from a set of candidates
// that all contain (or claim to have shipped) a given commit, applying the
// strict priority order of §4.8: released-and-semver beats
// unreleased-and-semver beats released-and-not-semver beats
// unreleased-and-not-semver.
//
// The local-ancestry path and the API path break ties differently — this
// is a deliberate, preserved inconsistency (see §9 Open Questions): the
// local path has exact commit ancestry and timestamps to sort by, while
// the API path only has the order GitHub itself returned, and re-sorting
// it would require fetching every candidate's commit individually.
package tagselect

import "github.com/davetashner/wtg/internal/model"

// tier ranks a tag into one of four priority buckets; lower is better.
func tier(t model.Tag) int {
	switch {
	case t.IsRelease && t.IsSemver():
		return 0
	case !t.IsRelease && t.IsSemver():
		return 1
	case t.IsRelease && !t.IsSemver():
		return 2
	default:
		return 3
	}
}

// SelectLocal picks the best tag from candidates gathered by walking local
// commit ancestry (internal/localgit.TagsContainingCommit). Within the
// winning tier, ties break by earliest commit timestamp.
func SelectLocal(candidates []model.Tag) (model.Tag, bool) {
	if len(candidates) == 0 {
		return model.Tag{}, false
	}

	best := candidates[0]
	bestTier := tier(best)
	for _, c := range candidates[1:] {
		ct := tier(c)
		switch {
		case ct < bestTier:
			best, bestTier = c, ct
		case ct == bestTier && c.CreatedAt.Before(best.CreatedAt):
			best = c
		}
	}
	return best, true
}

// SelectAPI picks the best tag from candidates in the order the GitHub API
// returned them. Within the winning tier it keeps the first candidate
// encountered rather than re-sorting by timestamp — see the package doc.
func SelectAPI(candidates []model.Tag) (model.Tag, bool) {
	if len(candidates) == 0 {
		return model.Tag{}, false
	}

	bestIdx := 0
	bestTier := tier(candidates[0])
	for i, c := range candidates[1:] {
		if ct := tier(c); ct < bestTier {
			bestIdx, bestTier = i+1, ct
		}
	}
	return candidates[bestIdx], true
}
