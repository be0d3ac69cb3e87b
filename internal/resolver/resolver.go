// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package resolver implements the Resolver (C7): starting from one query
// entry point, it walks commit ⇄ PR ⇄ issue ⇄ release through a
// backend.Backend, including the cross-repository PR hop of §4.7/§4.8,
// and returns a model.IdentifiedThing.
package resolver

import (
	"context"
	"strconv"

	"github.com/davetashner/wtg/internal/backend"
	"github.com/davetashner/wtg/internal/model"
	"github.com/davetashner/wtg/internal/wtgerr"
)

// Resolve drives q to completion against b. ownCoords is the repository b
// is primarily bound to — used to detect the cross-repository PR hop of
// §4.7 ("if the PR's coords differ from the backend's own coords").
func Resolve(ctx context.Context, b backend.Backend, ownCoords model.RepoCoords, q model.Query) (model.IdentifiedThing, []model.Notice, error) {
	switch q.Kind {
	case model.QueryGitCommit:
		return resolveCommit(ctx, b, q, q.Hash)
	case model.QueryPr:
		return resolvePR(ctx, b, q, q.Number)
	case model.QueryIssue:
		return resolveIssue(ctx, b, ownCoords, q, q.Number)
	case model.QueryIssueOrPr:
		return resolveIssueOrPr(ctx, b, ownCoords, q, q.Number)
	case model.QueryFilePath:
		return resolveFile(ctx, b, q, q.Path)
	case model.QueryUnknown:
		return resolveUnknown(ctx, b, ownCoords, q)
	default:
		return model.IdentifiedThing{}, nil, wtgerr.New(wtgerr.KindNotFound, "unrecognized query kind")
	}
}

// skippable reports whether err represents a probe miss (NotFound or
// Unsupported) that the Unknown-classification and cross-backend fallback
// paths should treat as "try the next option", per spec §7's propagation
// policy. Any other error (rate limit, SAML, timeout, I/O) aborts the run.
func skippable(err error) bool {
	kind, ok := wtgerr.KindOf(err)
	if !ok {
		return false
	}
	return kind == wtgerr.KindNotFound || kind == wtgerr.KindUnsupported
}

// commitBundle resolves a commit, enriches it, and attaches the release
// that first shipped it — the shared tail of GitCommit, Pr, and the
// commit-probe branch of Unknown.
func commitBundle(ctx context.Context, b backend.Backend, hash string) (model.Commit, *model.Tag, error) {
	c, err := b.FindCommit(ctx, hash)
	if err != nil {
		return model.Commit{}, nil, err
	}
	c, err = b.EnrichCommit(ctx, c)
	if err != nil {
		return model.Commit{}, nil, err
	}
	var release *model.Tag
	if rel, ok, err := b.FindReleaseForCommit(ctx, c.Hash); err == nil && ok {
		release = &rel
	}
	return c, release, nil
}

func resolveCommit(ctx context.Context, b backend.Backend, q model.Query, hash string) (model.IdentifiedThing, []model.Notice, error) {
	c, release, err := commitBundle(ctx, b, hash)
	if err != nil {
		return model.IdentifiedThing{}, nil, err
	}
	info := &model.EnrichedInfo{EntryPoint: q, Commit: &c, Release: release}
	return model.IdentifiedThing{Kind: model.KindEnriched, Enriched: info}, nil, nil
}

func resolvePR(ctx context.Context, b backend.Backend, q model.Query, number uint64) (model.IdentifiedThing, []model.Notice, error) {
	pr, err := b.FindPR(ctx, number)
	if err != nil {
		return model.IdentifiedThing{}, nil, err
	}
	info := &model.EnrichedInfo{EntryPoint: q, PR: &pr}
	if pr.MergeCommitSHA != "" {
		c, release, err := commitBundle(ctx, b, pr.MergeCommitSHA)
		if err == nil {
			info.Commit = &c
			info.Release = release
		}
		// A merged PR whose commit can't be re-resolved (e.g. the API
		// doesn't expose the underlying capability) still reports the PR
		// itself — commit/release absence is explained by capability, per
		// the EnrichedInfo invariant in spec §3.
	}
	return model.IdentifiedThing{Kind: model.KindEnriched, Enriched: info}, nil, nil
}

func resolveIssue(ctx context.Context, b backend.Backend, ownCoords model.RepoCoords, q model.Query, number uint64) (model.IdentifiedThing, []model.Notice, error) {
	issue, err := b.FindIssue(ctx, number)
	if err != nil {
		return model.IdentifiedThing{}, nil, err
	}

	var notices []model.Notice
	if issue.State == model.IssueClosed {
		prs, incomplete, err := b.ClosingPRs(ctx, number)
		if err == nil {
			issue.ClosingPRs = prs
		}
		issue.TimelineMayBeIncomplete = incomplete
	}

	info := &model.EnrichedInfo{EntryPoint: q, Issue: &issue}
	if len(issue.ClosingPRs) > 0 {
		pr := issue.ClosingPRs[0]
		info.PR = &pr

		prBackend := b
		if pr.Coords != nil && !pr.Coords.Equal(ownCoords) {
			prBackend = b.ForRepo(*pr.Coords)
			notices = append(notices, model.Notice{Kind: model.NoticeCrossProjectFallbackToApi, Detail: pr.Coords.String()})
		}

		if pr.MergeCommitSHA != "" {
			c, err := prBackend.FindCommit(ctx, pr.MergeCommitSHA)
			if err == nil {
				if enriched, eerr := prBackend.EnrichCommit(ctx, c); eerr == nil {
					c = enriched
				}
				info.Commit = &c

				// Release resolution tries the issue's own backend first
				// (the user's mental model usually cares where the issue
				// lives), falling back to the PR's backend — spec §4.8.
				if rel, ok, err := b.FindReleaseForCommit(ctx, c.Hash); err == nil && ok {
					info.Release = &rel
				} else if prBackend != b {
					if rel, ok, err := prBackend.FindReleaseForCommit(ctx, c.Hash); err == nil && ok {
						info.Release = &rel
					}
				}
			}
		}
	}

	return model.IdentifiedThing{Kind: model.KindEnriched, Enriched: info}, notices, nil
}

func resolveIssueOrPr(ctx context.Context, b backend.Backend, ownCoords model.RepoCoords, q model.Query, number uint64) (model.IdentifiedThing, []model.Notice, error) {
	if thing, notices, err := resolvePR(ctx, b, q, number); err == nil {
		return thing, notices, nil
	} else if !skippable(err) {
		return model.IdentifiedThing{}, nil, err
	}
	return resolveIssue(ctx, b, ownCoords, q, number)
}

func resolveFile(ctx context.Context, b backend.Backend, q model.Query, path string) (model.IdentifiedThing, []model.Notice, error) {
	f, err := b.FindFile(ctx, path)
	if err != nil {
		return model.IdentifiedThing{}, nil, err
	}

	urls := make([]string, len(f.PreviousAuthors))
	for i, a := range f.PreviousAuthors {
		if u, ok := b.AuthorURLFromEmail(a.Email); ok {
			urls[i] = u
		}
	}

	result := &model.FileResult{
		File:       f,
		CommitURL:  b.CommitURL(f.LastCommit.Hash),
		AuthorURLs: urls,
	}
	if rel, ok, err := b.FindReleaseForCommit(ctx, f.LastCommit.Hash); err == nil && ok {
		result.Release = &rel
	}

	return model.IdentifiedThing{Kind: model.KindFile, File: result}, nil, nil
}

// resolveUnknown probes an ambiguous token in the order spec §4.8
// prescribes: commit, then (if numeric) PR, then issue, then file, then
// tag. The first successful probe wins; NotFound/Unsupported on a probe
// just moves on to the next one.
func resolveUnknown(ctx context.Context, b backend.Backend, ownCoords model.RepoCoords, q model.Query) (model.IdentifiedThing, []model.Notice, error) {
	token := q.Token

	if thing, notices, err := resolveCommit(ctx, b, model.GitCommitQuery(token), token); err == nil {
		thing.Enriched.EntryPoint = q
		return thing, notices, nil
	} else if !skippable(err) {
		return model.IdentifiedThing{}, nil, err
	}

	if n, convErr := strconv.ParseUint(token, 10, 64); convErr == nil {
		if thing, notices, err := resolvePR(ctx, b, model.PrQuery(n), n); err == nil {
			thing.Enriched.EntryPoint = q
			return thing, notices, nil
		} else if !skippable(err) {
			return model.IdentifiedThing{}, nil, err
		}

		if thing, notices, err := resolveIssue(ctx, b, ownCoords, model.IssueQuery(n), n); err == nil {
			thing.Enriched.EntryPoint = q
			return thing, notices, nil
		} else if !skippable(err) {
			return model.IdentifiedThing{}, nil, err
		}
	}

	if thing, notices, err := resolveFile(ctx, b, model.FilePathQuery(token), token); err == nil {
		return thing, notices, nil
	} else if !skippable(err) {
		return model.IdentifiedThing{}, nil, err
	}

	tag, err := b.FindTag(ctx, token)
	if err == nil {
		return model.IdentifiedThing{Kind: model.KindTagOnly, TagOnly: &tag, TagOnlyURL: b.TagURL(tag)}, nil, nil
	}
	if !skippable(err) {
		return model.IdentifiedThing{}, nil, err
	}

	return model.IdentifiedThing{}, nil, wtgerr.New(wtgerr.KindNotFound, "no commit, PR, issue, file, or tag matched "+token)
}
