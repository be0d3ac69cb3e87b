// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package backend defines the capability surface the resolver (C7) drives
// — find a commit, a file's history, a PR, an issue, its closing PRs, the
// tags containing a commit — and three implementations: GitOnly (local
// clone only), ApiOnly (GitHub REST only), and Combined (local repo
// augmented with GitHub metadata), per §4.6.
package backend

import (
	"context"

	"github.com/davetashner/wtg/internal/ghapi"
	"github.com/davetashner/wtg/internal/localgit"
	"github.com/davetashner/wtg/internal/model"
	"github.com/davetashner/wtg/internal/repocache"
	"github.com/davetashner/wtg/internal/tagselect"
	"github.com/davetashner/wtg/internal/urlbuild"
	"github.com/davetashner/wtg/internal/wtgerr"
)

// Backend is the capability interface every variant implements. A
// capability a variant cannot provide returns a *wtgerr.Error with
// Kind == wtgerr.KindUnsupported rather than panicking or guessing.
type Backend interface {
	FindCommit(ctx context.Context, hashPrefix string) (model.Commit, error)
	FindFile(ctx context.Context, path string) (model.File, error)
	// FindTag looks up a tag by exact name, used by Unknown-classification
	// probing (§4.8): "probe commit, pr, issue, file, then tag".
	FindTag(ctx context.Context, name string) (model.Tag, error)
	FindPR(ctx context.Context, number uint64) (model.PullRequest, error)
	FindIssue(ctx context.Context, number uint64) (model.Issue, error)
	ClosingPRs(ctx context.Context, issueNumber uint64) ([]model.PullRequest, bool, error)
	PRsForCommit(ctx context.Context, hash string) ([]model.PullRequest, error)
	TagsContainingCommit(ctx context.Context, hash string) ([]model.Tag, error)
	ReleaseForTag(ctx context.Context, tagName string) (model.Tag, bool, error)
	// FindReleaseForCommit applies the Tag Selector's priority and tie-break
	// rule (§4.9) appropriate to this backend's data source: the local path
	// re-sorts within a priority tier by earliest commit timestamp; the API
	// path keeps GitHub's own ordering.
	FindReleaseForCommit(ctx context.Context, hash string) (model.Tag, bool, error)
	// EnrichCommit fills in GitHub-derived fields (author login/URL,
	// commit URL) on an already-resolved Commit. It is idempotent: calling
	// it twice on its own output changes nothing further.
	EnrichCommit(ctx context.Context, c model.Commit) (model.Commit, error)
	// ForRepo returns a Backend scoped to a different repository, sharing
	// this Backend's underlying clients/clone cache (§4.6 for_repo).
	ForRepo(coords model.RepoCoords) Backend
	// CommitURL, TagURL, and AuthorURLFromEmail are the pure URL builders
	// of §4.5/§4.6, exposed per-backend so the resolver never needs to know
	// which repository coordinates a given backend is bound to.
	CommitURL(hash string) string
	TagURL(tag model.Tag) string
	AuthorURLFromEmail(email string) (string, bool)
}

func unsupported(capability string) error {
	return wtgerr.New(wtgerr.KindUnsupported, capability+" is not available on this backend")
}

// ---- GitOnly -----------------------------------------------------------

// GitOnly answers every query from the local clone alone. GitHub-only
// capabilities (PR/issue lookups, closing-PR discovery, release metadata)
// are unsupported.
type GitOnly struct {
	Repo   *localgit.Repo
	Coords model.RepoCoords
	// Cache is the Repo Cache entry (C3) backing this repository, when one
	// is available. A nil Cache means commit lookups never attempt the
	// incremental ensure_commit fetch of §4.3 — a plain, already-complete
	// local clone with no cache wrapper has nothing more to fetch.
	Cache *repocache.Entry
}

// FindCommit resolves hashPrefix from the local clone, falling back to the
// Repo Cache's ensure_commit probe-then-fetch algorithm (§4.3) when the
// commit isn't present yet and a cache entry is attached.
func (b GitOnly) FindCommit(ctx context.Context, hashPrefix string) (model.Commit, error) {
	c, err := b.Repo.FindCommit(hashPrefix)
	if err == nil || b.Cache == nil {
		return c, err
	}
	c, _, fetchErr := b.Cache.EnsureCommit(ctx, hashPrefix, b.Cache.Remote, b.Repo.FindCommit)
	if fetchErr != nil {
		return model.Commit{}, err
	}
	return c, nil
}

func (b GitOnly) FindFile(_ context.Context, path string) (model.File, error) {
	return b.Repo.FindFile(path)
}

func (b GitOnly) FindTag(_ context.Context, name string) (model.Tag, error) {
	all, err := b.Repo.Tags()
	if err != nil {
		return model.Tag{}, err
	}
	for _, t := range all {
		if t.Name == name {
			return t, nil
		}
	}
	return model.Tag{}, wtgerr.New(wtgerr.KindNotFound, "tag "+name+" not found locally")
}

func (b GitOnly) FindPR(context.Context, uint64) (model.PullRequest, error) {
	return model.PullRequest{}, unsupported("pull request lookup")
}

func (b GitOnly) FindIssue(context.Context, uint64) (model.Issue, error) {
	return model.Issue{}, unsupported("issue lookup")
}

func (b GitOnly) ClosingPRs(context.Context, uint64) ([]model.PullRequest, bool, error) {
	return nil, false, unsupported("closing-PR discovery")
}

func (b GitOnly) PRsForCommit(context.Context, string) ([]model.PullRequest, error) {
	return nil, unsupported("PR-for-commit lookup")
}

func (b GitOnly) TagsContainingCommit(_ context.Context, hash string) ([]model.Tag, error) {
	all, err := b.Repo.Tags()
	if err != nil {
		return nil, err
	}
	return b.Repo.TagsContainingCommit(hash, all)
}

func (b GitOnly) ReleaseForTag(context.Context, string) (model.Tag, bool, error) {
	return model.Tag{}, false, unsupported("release metadata")
}

// FindReleaseForCommit applies the Tag Selector's local-ancestry path
// (§4.9): gather every tag containing hash by ancestry, then pick by
// strict priority tier with earliest-timestamp tie-break.
func (b GitOnly) FindReleaseForCommit(ctx context.Context, hash string) (model.Tag, bool, error) {
	candidates, err := b.TagsContainingCommit(ctx, hash)
	if err != nil {
		return model.Tag{}, false, err
	}
	tag, ok := tagselect.SelectLocal(candidates)
	return tag, ok, nil
}

// EnrichCommit is a no-op on GitOnly: there is no GitHub metadata to add.
func (b GitOnly) EnrichCommit(_ context.Context, c model.Commit) (model.Commit, error) {
	return c, nil
}

func (b GitOnly) ForRepo(model.RepoCoords) Backend {
	// A local clone is bound to one repository; cross-repo GitOnly queries
	// are unsupported by construction — the backend resolver (C9) never
	// builds a GitOnly backend for a cross-repo query in the first place.
	return unsupportedBackend{}
}

func (b GitOnly) CommitURL(hash string) string { return urlbuild.CommitURL(b.Coords, hash) }

func (b GitOnly) TagURL(tag model.Tag) string { return urlbuild.TagURL(b.Coords, tag) }

func (b GitOnly) AuthorURLFromEmail(email string) (string, bool) {
	return urlbuild.AuthorURLFromEmail(email)
}

// ---- ApiOnly ------------------------------------------------------------

// ApiOnly answers every query through the GitHub REST API alone. File
// touch-history is unsupported: walking blame purely over the API would
// require a prohibitive number of requests, so FindFile returns a
// KindUnsupported error instead of attempting it.
type ApiOnly struct {
	API *ghapi.Adapter
}

func (b ApiOnly) FindCommit(ctx context.Context, hashPrefix string) (model.Commit, error) {
	return b.API.GetCommit(ctx, hashPrefix)
}

func (b ApiOnly) FindFile(context.Context, string) (model.File, error) {
	return model.File{}, unsupported("file touch-history over the API alone")
}

func (b ApiOnly) FindTag(ctx context.Context, name string) (model.Tag, error) {
	tag, ok, err := b.API.FindTagByName(ctx, name)
	if err != nil {
		return model.Tag{}, err
	}
	if !ok {
		return model.Tag{}, wtgerr.New(wtgerr.KindNotFound, "tag "+name+" not found")
	}
	return tag, nil
}

func (b ApiOnly) FindPR(ctx context.Context, number uint64) (model.PullRequest, error) {
	return b.API.GetPullRequest(ctx, int(number))
}

func (b ApiOnly) FindIssue(ctx context.Context, number uint64) (model.Issue, error) {
	return b.API.GetIssue(ctx, int(number))
}

func (b ApiOnly) ClosingPRs(ctx context.Context, issueNumber uint64) ([]model.PullRequest, bool, error) {
	return b.API.ClosingPRs(ctx, int(issueNumber))
}

func (b ApiOnly) PRsForCommit(ctx context.Context, hash string) ([]model.PullRequest, error) {
	return b.API.ListPRsForCommit(ctx, hash)
}

// TagsContainingCommit lists every release created on or after hash's own
// commit date (§4.9's API path bounds the release search by commit_date)
// and keeps the ones GitHub's compare API reports hash as being "behind" or
// "identical" to.
func (b ApiOnly) TagsContainingCommit(ctx context.Context, hash string) ([]model.Tag, error) {
	commit, err := b.API.GetCommit(ctx, hash)
	if err != nil {
		return nil, err
	}
	releases, err := b.API.ReleasesSince(ctx, commit.Date)
	if err != nil {
		return nil, err
	}
	var out []model.Tag
	for _, tag := range releases {
		status, err := b.API.CompareCommits(ctx, tag.Name, hash)
		if err != nil {
			continue
		}
		if status == "identical" || status == "behind" {
			out = append(out, tag)
		}
	}
	return out, nil
}

func (b ApiOnly) ReleaseForTag(ctx context.Context, tagName string) (model.Tag, bool, error) {
	return b.API.GetReleaseByTag(ctx, tagName)
}

// FindReleaseForCommit applies the Tag Selector's API path (§4.9): every
// release since hash's commit date is compared against hash, and among the
// "behind"/"identical" matches SelectAPI takes the first semver release in
// GitHub's newest-first order, or the first match when none is semver. It
// does not re-sort matches by timestamp — the preserved inconsistency of §9.
func (b ApiOnly) FindReleaseForCommit(ctx context.Context, hash string) (model.Tag, bool, error) {
	candidates, err := b.TagsContainingCommit(ctx, hash)
	if err != nil {
		return model.Tag{}, false, err
	}
	tag, ok := tagselect.SelectAPI(candidates)
	return tag, ok, nil
}

// EnrichCommit is a no-op on ApiOnly: FindCommit already returns a
// fully-enriched Commit, so re-enriching changes nothing (idempotence).
func (b ApiOnly) EnrichCommit(_ context.Context, c model.Commit) (model.Commit, error) {
	return c, nil
}

func (b ApiOnly) ForRepo(coords model.RepoCoords) Backend {
	return ApiOnly{API: b.API.ForRepo(coords)}
}

func (b ApiOnly) CommitURL(hash string) string { return urlbuild.CommitURL(b.API.Coords(), hash) }

func (b ApiOnly) TagURL(tag model.Tag) string { return urlbuild.TagURL(b.API.Coords(), tag) }

func (b ApiOnly) AuthorURLFromEmail(email string) (string, bool) {
	return urlbuild.AuthorURLFromEmail(email)
}

// ---- Combined -----------------------------------------------------------

// Combined prefers the local clone for read-only local-only capabilities
// (commit/file lookup) and the API for everything GitHub-specific
// (PR/issue/release/closing-PR), merging GitHub metadata onto local commit
// results.
type Combined struct {
	Git GitOnly
	Api ApiOnly
}

func (b Combined) FindCommit(ctx context.Context, hashPrefix string) (model.Commit, error) {
	if b.Git.Repo != nil {
		if c, err := b.Git.FindCommit(ctx, hashPrefix); err == nil {
			return b.EnrichCommit(ctx, c)
		}
	}
	return b.Api.FindCommit(ctx, hashPrefix)
}

func (b Combined) FindFile(ctx context.Context, path string) (model.File, error) {
	if b.Git.Repo == nil {
		return model.File{}, unsupported("file touch-history without a local clone")
	}
	return b.Git.FindFile(ctx, path)
}

func (b Combined) FindTag(ctx context.Context, name string) (model.Tag, error) {
	if b.Git.Repo != nil {
		if t, err := b.Git.FindTag(ctx, name); err == nil {
			return t, nil
		}
	}
	return b.Api.FindTag(ctx, name)
}

func (b Combined) FindPR(ctx context.Context, number uint64) (model.PullRequest, error) {
	return b.Api.FindPR(ctx, number)
}

func (b Combined) FindIssue(ctx context.Context, number uint64) (model.Issue, error) {
	return b.Api.FindIssue(ctx, number)
}

func (b Combined) ClosingPRs(ctx context.Context, issueNumber uint64) ([]model.PullRequest, bool, error) {
	return b.Api.ClosingPRs(ctx, issueNumber)
}

func (b Combined) PRsForCommit(ctx context.Context, hash string) ([]model.PullRequest, error) {
	return b.Api.PRsForCommit(ctx, hash)
}

// TagsContainingCommit prefers the local ancestry walk for speed (per
// §4.9), then enriches each candidate with GitHub release metadata so the
// released/unreleased priority tier tagselect applies is accurate rather
// than defaulting every locally-found tag to "unreleased".
func (b Combined) TagsContainingCommit(ctx context.Context, hash string) ([]model.Tag, error) {
	if b.Git.Repo != nil {
		if tags, err := b.Git.TagsContainingCommit(ctx, hash); err == nil {
			for i, t := range tags {
				if rel, ok, err := b.Api.API.GetReleaseByTag(ctx, t.Name); err == nil && ok {
					tags[i].IsRelease = rel.IsRelease
					tags[i].ReleaseName = rel.ReleaseName
					tags[i].ReleaseURL = rel.ReleaseURL
					tags[i].PublishedAt = rel.PublishedAt
				}
			}
			return tags, nil
		}
	}
	return b.Api.TagsContainingCommit(ctx, hash)
}

func (b Combined) ReleaseForTag(ctx context.Context, tagName string) (model.Tag, bool, error) {
	return b.Api.ReleaseForTag(ctx, tagName)
}

// FindReleaseForCommit prefers the local-ancestry path for speed (§4.9);
// TagsContainingCommit already prefers local ancestry and enriches with
// release metadata, so this reuses it directly rather than duplicating the
// Git.Repo-nil branch.
func (b Combined) FindReleaseForCommit(ctx context.Context, hash string) (model.Tag, bool, error) {
	candidates, err := b.TagsContainingCommit(ctx, hash)
	if err != nil {
		return model.Tag{}, false, err
	}
	if b.Git.Repo != nil {
		tag, ok := tagselect.SelectLocal(candidates)
		return tag, ok, nil
	}
	tag, ok := tagselect.SelectAPI(candidates)
	return tag, ok, nil
}

// EnrichCommit fills in GitHub login/URL metadata on a git-sourced Commit
// by looking it up through the API, tolerating failure (the commit stays
// git-only enriched when the API is unavailable). A field that is already
// set is never overwritten. Calling it again on its
// own output is a no-op: the second GetCommit lookup returns the same
// fields, so nothing changes (the idempotence invariant of §8).
func (b Combined) EnrichCommit(ctx context.Context, c model.Commit) (model.Commit, error) {
	enriched, err := b.Api.API.GetCommit(ctx, c.Hash)
	if err != nil {
		return c, nil
	}
	if c.AuthorLogin == "" {
		c.AuthorLogin = enriched.AuthorLogin
	}
	if c.AuthorURL == "" {
		c.AuthorURL = enriched.AuthorURL
	}
	if c.CommitURL == "" {
		c.CommitURL = enriched.CommitURL
	}
	return c, nil
}

// ForRepo spawns a sibling backend bound to a different repository, for the
// cross-repo PR hop of §4.7/§4.8. Per §4.6 it tries to open (or lazily
// clone) a cache entry for the sibling repository and yields a full
// Combined when that succeeds, falling back to ApiOnly when it can't — a
// missing local clone should never abort a cross-repo lookup the API alone
// can still answer.
func (b Combined) ForRepo(coords model.RepoCoords) Backend {
	api := ApiOnly{API: b.Api.API.ForRepo(coords)}
	remoteURL := "https://github.com/" + coords.Owner + "/" + coords.Repo + ".git"
	entry, _, err := repocache.OpenOrCreate(context.Background(), coords, remoteURL, true)
	if err != nil {
		return api
	}
	lg, err := localgit.Open(entry.Opener(), entry.Dir)
	if err != nil {
		return api
	}
	return Combined{Git: GitOnly{Repo: lg, Coords: coords, Cache: entry}, Api: api}
}

func (b Combined) CommitURL(hash string) string { return b.Api.CommitURL(hash) }

func (b Combined) TagURL(tag model.Tag) string { return b.Api.TagURL(tag) }

func (b Combined) AuthorURLFromEmail(email string) (string, bool) {
	return b.Api.AuthorURLFromEmail(email)
}

// ---- unsupportedBackend --------------------------------------------------

// unsupportedBackend answers every capability with KindUnsupported. It
// backs GitOnly.ForRepo, since a local clone cannot be redirected at a
// different repository.
type unsupportedBackend struct{}

func (unsupportedBackend) FindCommit(context.Context, string) (model.Commit, error) {
	return model.Commit{}, unsupported("cross-repo query on a local-only backend")
}
func (unsupportedBackend) FindFile(context.Context, string) (model.File, error) {
	return model.File{}, unsupported("cross-repo query on a local-only backend")
}
func (unsupportedBackend) FindTag(context.Context, string) (model.Tag, error) {
	return model.Tag{}, unsupported("cross-repo query on a local-only backend")
}
func (unsupportedBackend) FindPR(context.Context, uint64) (model.PullRequest, error) {
	return model.PullRequest{}, unsupported("cross-repo query on a local-only backend")
}
func (unsupportedBackend) FindIssue(context.Context, uint64) (model.Issue, error) {
	return model.Issue{}, unsupported("cross-repo query on a local-only backend")
}
func (unsupportedBackend) ClosingPRs(context.Context, uint64) ([]model.PullRequest, bool, error) {
	return nil, false, unsupported("cross-repo query on a local-only backend")
}
func (unsupportedBackend) PRsForCommit(context.Context, string) ([]model.PullRequest, error) {
	return nil, unsupported("cross-repo query on a local-only backend")
}
func (unsupportedBackend) TagsContainingCommit(context.Context, string) ([]model.Tag, error) {
	return nil, unsupported("cross-repo query on a local-only backend")
}
func (unsupportedBackend) ReleaseForTag(context.Context, string) (model.Tag, bool, error) {
	return model.Tag{}, false, unsupported("cross-repo query on a local-only backend")
}
func (unsupportedBackend) FindReleaseForCommit(context.Context, string) (model.Tag, bool, error) {
	return model.Tag{}, false, unsupported("cross-repo query on a local-only backend")
}
func (unsupportedBackend) CommitURL(hash string) string { return "" }
func (unsupportedBackend) TagURL(model.Tag) string       { return "" }
func (unsupportedBackend) AuthorURLFromEmail(string) (string, bool) { return "", false }
func (unsupportedBackend) EnrichCommit(_ context.Context, c model.Commit) (model.Commit, error) {
	return c, nil
}
func (unsupportedBackend) ForRepo(model.RepoCoords) Backend { return unsupportedBackend{} }

// Compile-time interface checks.
var (
	_ Backend = GitOnly{}
	_ Backend = ApiOnly{}
	_ Backend = Combined{}
	_ Backend = unsupportedBackend{}
)
