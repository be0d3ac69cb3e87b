// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

package model

// NoticeKind enumerates the non-fatal diagnostics wtg can emit during
// resolution (spec §4.10, §9). Notices never abort the pipeline; the CLI
// shell logs them and, where the renderer contract calls for it, surfaces
// them alongside the final report.
type NoticeKind int

const (
	// NoticeCloningRepo is emitted when the repo cache begins a clone.
	NoticeCloningRepo NoticeKind = iota
	// NoticeCloneSucceeded is emitted when a blob-filtered clone completes.
	NoticeCloneSucceeded
	// NoticeCloneFallbackToBare is emitted when the filtered clone failed and
	// a full bare clone via go-git was used instead.
	NoticeCloneFallbackToBare
	// NoticeCacheUpdateFailed is emitted when a best-effort cache refresh
	// (fetch --all) fails; resolution continues with stale state.
	NoticeCacheUpdateFailed
	// NoticeShallowRepoDetected is emitted when a shallow local repo blocks a
	// commit fetch that --fetch did not explicitly authorize.
	NoticeShallowRepoDetected
	// NoticeGhRateLimitHit is emitted exactly once per API call that hits a
	// GitHub rate limit.
	NoticeGhRateLimitHit
	// NoticeApiOnly is emitted when explicit coordinates could not produce a
	// usable local cache entry, so resolution fell back to the API-only
	// backend.
	NoticeApiOnly
	// NoticeNoRemotes is emitted when the local repo has no git remotes.
	NoticeNoRemotes
	// NoticeUnreachableGitHub is emitted when a GitHub remote exists but no
	// API client could be built.
	NoticeUnreachableGitHub
	// NoticeMixedRemotes is emitted when multiple distinct non-GitHub hosts
	// are configured as remotes, so GitOnly is used.
	NoticeMixedRemotes
	// NoticeUnsupportedHost is emitted when the only configured remote(s)
	// point at a non-GitHub (or unrecognized) forge.
	NoticeUnsupportedHost
	// NoticeCrossProjectFallbackToApi is emitted when a cross-repository PR
	// reference required spawning a sibling backend for the other
	// repository (Combined when its cache entry opens, ApiOnly otherwise).
	NoticeCrossProjectFallbackToApi
)

// Notice is a non-fatal diagnostic produced during backend resolution or
// query resolution. Detail carries kind-specific context (a remote URL, a
// host name, an error string) for logging and for the renderer.
type Notice struct {
	Kind   NoticeKind
	Detail string
}
