// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package ghapi wraps the GitHub REST API behind a narrow interface (§4.5
// GitHub API Adapter), following the teacher's githubAPI pattern, and
// implements the auth-fallback policy: retry on the anonymous backup
// client for SAML-enforcement and bad-credentials responses, never retry
// on rate limits or timeouts.
package ghapi

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/davetashner/wtg/internal/ghauth"
	"github.com/davetashner/wtg/internal/model"
	"github.com/davetashner/wtg/internal/wtgerr"
)

// rawAPI abstracts the subset of go-github used here, mirroring the
// teacher's githubAPI interface so tests can inject a fake client.
type rawAPI interface {
	GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, *github.Response, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error)
	ListPRsWithCommit(ctx context.Context, owner, repo, sha string) ([]*github.PullRequest, *github.Response, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
	ListIssueTimeline(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.Timeline, *github.Response, error)
	ListReleases(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error)
	GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error)
	CompareCommits(ctx context.Context, owner, repo, base, head string) (*github.CommitsComparison, *github.Response, error)
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, *github.Response, error)
	ListTags(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryTag, *github.Response, error)
}

type realAPI struct{ client *github.Client }

func (r *realAPI) GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, *github.Response, error) {
	return r.client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
}
func (r *realAPI) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error) {
	return r.client.PullRequests.Get(ctx, owner, repo, number)
}
func (r *realAPI) ListPRsWithCommit(ctx context.Context, owner, repo, sha string) ([]*github.PullRequest, *github.Response, error) {
	return r.client.PullRequests.ListPullRequestsWithCommit(ctx, owner, repo, sha, nil)
}
func (r *realAPI) GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error) {
	return r.client.Issues.Get(ctx, owner, repo, number)
}
func (r *realAPI) ListIssueTimeline(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.Timeline, *github.Response, error) {
	return r.client.Issues.ListIssueTimeline(ctx, owner, repo, number, opts)
}
func (r *realAPI) ListReleases(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error) {
	return r.client.Repositories.ListReleases(ctx, owner, repo, opts)
}
func (r *realAPI) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error) {
	return r.client.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
}
func (r *realAPI) CompareCommits(ctx context.Context, owner, repo, base, head string) (*github.CommitsComparison, *github.Response, error) {
	return r.client.Repositories.CompareCommits(ctx, owner, repo, base, head, nil)
}
func (r *realAPI) GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, *github.Response, error) {
	content, _, resp, err := r.client.Repositories.GetContents(ctx, owner, repo, path, opts)
	return content, resp, err
}
func (r *realAPI) ListTags(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryTag, *github.Response, error) {
	return r.client.Repositories.ListTags(ctx, owner, repo, opts)
}

// Adapter is the GitHub API Adapter: a main client (possibly token-backed)
// and a lazily-built anonymous backup, with the fallback policy of §4.5
// applied uniformly across every call.
type Adapter struct {
	main   rawAPI
	backup rawAPI
	coords model.RepoCoords
}

// New builds an Adapter for coords from clients. backup is left nil when
// clients.Backup() is nil (main client already anonymous) — call() treats
// a nil backup as "no fallback available" rather than dereferencing it.
func New(clients *ghauth.Clients, coords model.RepoCoords) *Adapter {
	a := &Adapter{main: &realAPI{client: clients.Main}, coords: coords}
	if backup := clients.Backup(); backup != nil {
		a.backup = &realAPI{client: backup}
	}
	return a
}

// ForRepo returns an Adapter for a different repository, sharing this
// Adapter's underlying clients (spec's for_repo cross-repo spawning, §4.6).
func (a *Adapter) ForRepo(coords model.RepoCoords) *Adapter {
	return &Adapter{main: a.main, backup: a.backup, coords: coords}
}

// Coords returns the repository this Adapter is bound to.
func (a *Adapter) Coords() model.RepoCoords { return a.coords }

// requestTimeout bounds a single GitHub API call, applied outside the
// client library per spec §4.5/§5: the main attempt and a backup retry
// each get their own deadline.
const requestTimeout = 5 * time.Second

// call runs fn against the main client, and retries against the backup
// client only for the classes of failure the fallback policy allows:
// SAML SSO enforcement and bad-credentials responses. Rate limits and
// timeouts never retry. It reports whether the backup client ultimately
// served the request because the main client hit SAML SSO enforcement —
// the signal §4.7 uses to mark a closing-PR timeline as possibly
// incomplete.
func (a *Adapter) call(ctx context.Context, fn func(context.Context, rawAPI) (*github.Response, error)) (samlFallback bool, err error) {
	mainCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	resp, err := fn(mainCtx, a.main)
	if err == nil {
		return false, nil
	}
	kind := Classify(err, resp)
	switch kind {
	case wtgerr.KindGhSaml, wtgerr.KindGhBadCredentials:
		if a.backup == nil {
			return false, wtgerr.Wrap(wtgerr.KindGhConnectionLost, "github request failed, no anonymous backup client available", err)
		}
		backupCtx, backupCancel := context.WithTimeout(ctx, requestTimeout)
		defer backupCancel()
		if _, berr := fn(backupCtx, a.backup); berr == nil {
			return kind == wtgerr.KindGhSaml, nil
		}
		return false, wtgerr.Wrap(kind, "github request failed on main client, backup also failed", err)
	default:
		return false, wtgerr.Wrap(kind, "github request failed", err)
	}
}

// Classify maps a go-github error into a wtgerr.Kind per the fallback
// policy in §4.5: 429 or a 403 carrying a rate-limit marker never retries;
// a 403 carrying a SAML SSO marker or a 401 Bad Credentials retries on the
// backup client; any other 403 is a plain forbidden; context deadline
// exceeded is a timeout; anything else is an opaque GitHub-client failure.
func Classify(err error, resp *github.Response) wtgerr.Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return wtgerr.KindTimeout
	}

	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return wtgerr.KindGhRateLimit
	}

	if resp != nil {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return wtgerr.KindGhRateLimit
		case http.StatusUnauthorized:
			return wtgerr.KindGhBadCredentials
		case http.StatusForbidden:
			msg := strings.ToLower(err.Error())
			switch {
			case strings.Contains(msg, "rate limit"):
				return wtgerr.KindGhRateLimit
			case strings.Contains(msg, "saml") || strings.Contains(msg, "sso"):
				return wtgerr.KindGhSaml
			default:
				return wtgerr.KindGhForbidden
			}
		}
	}
	return wtgerr.KindGhConnectionLost
}

// GetCommit fetches a commit and its associated author/committer GitHub
// logins.
func (a *Adapter) GetCommit(ctx context.Context, sha string) (model.Commit, error) {
	var out *github.RepositoryCommit
	_, err := a.call(ctx, func(ctx context.Context, api rawAPI) (*github.Response, error) {
		c, resp, err := api.GetCommit(ctx, a.coords.Owner, a.coords.Repo, sha)
		out = c
		return resp, err
	})
	if err != nil {
		return model.Commit{}, err
	}
	return commitFromAPI(out), nil
}

func commitFromAPI(c *github.RepositoryCommit) model.Commit {
	var name, email, login, authorURL string
	var when time.Time
	if commit := c.GetCommit(); commit != nil {
		if author := commit.GetAuthor(); author != nil {
			name = author.GetName()
			email = author.GetEmail()
			when = author.GetDate().Time
		}
	}
	if ghAuthor := c.GetAuthor(); ghAuthor != nil {
		login = ghAuthor.GetLogin()
		authorURL = ghAuthor.GetHTMLURL()
	}

	subject, bodyLines := splitMessage(c.GetCommit().GetMessage())
	m := model.NewCommit(c.GetSHA(), subject, bodyLines, name, email, when)
	m.AuthorLogin = login
	m.AuthorURL = authorURL
	m.CommitURL = c.GetHTMLURL()
	return m
}

// GetPullRequest fetches a pull request by number.
func (a *Adapter) GetPullRequest(ctx context.Context, number int) (model.PullRequest, error) {
	var out *github.PullRequest
	_, err := a.call(ctx, func(ctx context.Context, api rawAPI) (*github.Response, error) {
		pr, resp, err := api.GetPullRequest(ctx, a.coords.Owner, a.coords.Repo, number)
		out = pr
		return resp, err
	})
	if err != nil {
		return model.PullRequest{}, err
	}
	return prFromAPI(out, a.coords), nil
}

func prFromAPI(pr *github.PullRequest, coords model.RepoCoords) model.PullRequest {
	out := model.PullRequest{
		Number:         uint64(pr.GetNumber()),
		Coords:         &coords,
		Title:          pr.GetTitle(),
		Body:           pr.GetBody(),
		State:          pr.GetState(),
		URL:            pr.GetHTMLURL(),
		Merged:         pr.GetMerged(),
		MergeCommitSHA: pr.GetMergeCommitSHA(),
	}
	if author := pr.GetUser(); author != nil {
		out.Author = author.GetLogin()
		out.AuthorURL = author.GetHTMLURL()
	}
	if pr.CreatedAt != nil {
		t := pr.GetCreatedAt().Time
		out.CreatedAt = &t
	}
	return out
}

// ListPRsForCommit lists the pull requests associated with a commit SHA —
// the primary route from a GitCommit query to its PR (§4.7 resolve_commit).
func (a *Adapter) ListPRsForCommit(ctx context.Context, sha string) ([]model.PullRequest, error) {
	var out []*github.PullRequest
	_, err := a.call(ctx, func(ctx context.Context, api rawAPI) (*github.Response, error) {
		prs, resp, err := api.ListPRsWithCommit(ctx, a.coords.Owner, a.coords.Repo, sha)
		out = prs
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.PullRequest, 0, len(out))
	for _, pr := range out {
		result = append(result, prFromAPI(pr, a.coords))
	}
	return result, nil
}

// GetIssue fetches an issue by number, without its closing PRs (see
// ClosingPRs, which walks the timeline separately).
func (a *Adapter) GetIssue(ctx context.Context, number int) (model.Issue, error) {
	var out *github.Issue
	_, err := a.call(ctx, func(ctx context.Context, api rawAPI) (*github.Response, error) {
		issue, resp, err := api.GetIssue(ctx, a.coords.Owner, a.coords.Repo, number)
		out = issue
		return resp, err
	})
	if err != nil {
		return model.Issue{}, err
	}
	return issueFromAPI(out), nil
}

func issueFromAPI(issue *github.Issue) model.Issue {
	out := model.Issue{
		Number: uint64(issue.GetNumber()),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		URL:    issue.GetHTMLURL(),
		State:  model.IssueOpen,
	}
	if issue.GetState() == "closed" {
		out.State = model.IssueClosed
	}
	if author := issue.GetUser(); author != nil {
		out.Author = author.GetLogin()
		out.AuthorURL = author.GetHTMLURL()
	}
	if issue.CreatedAt != nil {
		t := issue.GetCreatedAt().Time
		out.CreatedAt = &t
	}
	return out
}

// linkedPR extracts a (repo, PR number, event kind) triple from a timeline
// event whose source names a pull request, defaulting to the issue's own
// repo when the event carries no repository information. Event kinds other
// than Closed/CrossReferenced/Referenced are not candidates at all.
func linkedPR(ev *github.Timeline, fallback model.RepoCoords) (coords model.RepoCoords, number int, event string, ok bool) {
	event = ev.GetEvent()
	if event != "closed" && event != "cross-referenced" && event != "referenced" {
		return model.RepoCoords{}, 0, "", false
	}
	src := ev.GetSource()
	if src == nil || src.Issue == nil || !src.Issue.IsPullRequest() {
		return model.RepoCoords{}, 0, "", false
	}
	coords = fallback
	if repo := src.Issue.GetRepository(); repo != nil {
		if owner := repo.GetOwner(); owner != nil {
			coords = model.RepoCoords{Owner: owner.GetLogin(), Repo: repo.GetName()}
		}
	}
	return coords, src.Issue.GetNumber(), event, true
}

// ClosingPRs walks the issue timeline looking for pull requests linked to
// its closure (§4.7): a Closed event naming a merged PR is appended after
// the candidates gathered so far and stops the walk outright; a CrossReferenced or
// Referenced event naming a merged PR is added to the candidate list
// (deduplicated by repo+number) and the walk continues. Unmerged PRs are
// never candidates. It reports timelineMayBeIncomplete when the timeline
// was ultimately served by the anonymous backup client after a SAML
// fallback on the main client — cross-project references may be missing
// from that view.
func (a *Adapter) ClosingPRs(ctx context.Context, number int) ([]model.PullRequest, bool, error) {
	const maxPages = 10
	seen := map[model.RepoCoords]map[int]bool{}
	var candidates []model.PullRequest
	mayBeIncomplete := false

	for page := 1; page <= maxPages; page++ {
		var events []*github.Timeline
		samlFallback, err := a.call(ctx, func(ctx context.Context, api rawAPI) (*github.Response, error) {
			ev, resp, err := api.ListIssueTimeline(ctx, a.coords.Owner, a.coords.Repo, number,
				&github.ListOptions{Page: page, PerPage: 100})
			events = ev
			return resp, err
		})
		if err != nil {
			return nil, false, err
		}
		if page == 1 {
			mayBeIncomplete = samlFallback
		}

		for _, ev := range events {
			coords, prNumber, event, ok := linkedPR(ev, a.coords)
			if !ok {
				continue
			}

			pr, err := a.ForRepo(coords).GetPullRequest(ctx, prNumber)
			if err != nil {
				continue
			}
			if !pr.Merged {
				continue
			}

			if event == "closed" {
				return append(candidates, pr), mayBeIncomplete, nil
			}

			if seen[coords] == nil {
				seen[coords] = map[int]bool{}
			}
			if seen[coords][prNumber] {
				continue
			}
			seen[coords][prNumber] = true
			candidates = append(candidates, pr)
		}
		if len(events) < 100 {
			break
		}
	}
	return candidates, mayBeIncomplete, nil
}

// ReleasesSince paginates releases newest-first (100/page), sorting each
// page by created_at descending before applying the cutoff, and stops as
// soon as a release's created_at is strictly older than since — per §4.5's
// fetch_releases_since and the Tag Selector's API path (§4.9), which needs
// only the releases that could possibly postdate a given commit.
func (a *Adapter) ReleasesSince(ctx context.Context, since time.Time) ([]model.Tag, error) {
	const maxPages = 20
	var tags []model.Tag

	for page := 1; page <= maxPages; page++ {
		var out []*github.RepositoryRelease
		_, err := a.call(ctx, func(ctx context.Context, api rawAPI) (*github.Response, error) {
			releases, resp, err := api.ListReleases(ctx, a.coords.Owner, a.coords.Repo,
				&github.ListOptions{Page: page, PerPage: 100})
			out = releases
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			break
		}

		sort.SliceStable(out, func(i, j int) bool {
			return out[i].GetCreatedAt().Time.After(out[j].GetCreatedAt().Time)
		})

		cutoffHit := false
		for _, rel := range out {
			t := tagFromRelease(rel)
			if t.CreatedAt.Before(since) {
				cutoffHit = true
				break
			}
			tags = append(tags, t)
		}
		if cutoffHit || len(out) < 100 {
			break
		}
	}
	return tags, nil
}

// GetReleaseByTag fetches the release object for a specific tag name, if
// one was published.
func (a *Adapter) GetReleaseByTag(ctx context.Context, tag string) (model.Tag, bool, error) {
	var out *github.RepositoryRelease
	_, err := a.call(ctx, func(ctx context.Context, api rawAPI) (*github.Response, error) {
		rel, resp, err := api.GetReleaseByTag(ctx, a.coords.Owner, a.coords.Repo, tag)
		out = rel
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return resp, nil
		}
		return resp, err
	})
	if err != nil {
		return model.Tag{}, false, err
	}
	if out == nil {
		return model.Tag{}, false, nil
	}
	return tagFromRelease(out), true, nil
}

func tagFromRelease(rel *github.RepositoryRelease) model.Tag {
	t := model.Tag{
		Name:        rel.GetTagName(),
		IsRelease:   true,
		ReleaseName: rel.GetName(),
		ReleaseURL:  rel.GetHTMLURL(),
		CreatedAt:   rel.GetCreatedAt().Time,
	}
	if rel.PublishedAt != nil {
		pub := rel.GetPublishedAt().Time
		t.PublishedAt = &pub
		if t.CreatedAt.IsZero() {
			t.CreatedAt = pub
		}
	}
	return t
}

// GetFileContent fetches a file's content at ref (a branch, tag, or commit
// SHA), used when the local clone lacks the blob (§4.5 GetFileContent).
func (a *Adapter) GetFileContent(ctx context.Context, path, ref string) (string, error) {
	var out *github.RepositoryContent
	_, err := a.call(ctx, func(ctx context.Context, api rawAPI) (*github.Response, error) {
		content, resp, err := api.GetContents(ctx, a.coords.Owner, a.coords.Repo, path, &github.RepositoryContentGetOptions{Ref: ref})
		out = content
		return resp, err
	})
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", wtgerr.New(wtgerr.KindNotFound, "no content returned for "+path)
	}
	return out.GetContent()
}

// CompareCommits returns the status field of GitHub's compare API for
// base...head ("identical"/"ahead"/"behind"/"diverged"); "behind" or
// "identical" means head is an ancestor of base (or is base itself).
func (a *Adapter) CompareCommits(ctx context.Context, base, head string) (string, error) {
	var out *github.CommitsComparison
	_, err := a.call(ctx, func(ctx context.Context, api rawAPI) (*github.Response, error) {
		cmp, resp, err := api.CompareCommits(ctx, a.coords.Owner, a.coords.Repo, base, head)
		out = cmp
		return resp, err
	})
	if err != nil {
		return "", err
	}
	return out.GetStatus(), nil
}

// FindTagByName looks up a single tag by exact name, preferring the richer
// release object when one is attached (used by Unknown-classification tag
// probing, spec §4.8).
func (a *Adapter) FindTagByName(ctx context.Context, name string) (model.Tag, bool, error) {
	if tag, ok, err := a.GetReleaseByTag(ctx, name); err != nil {
		return model.Tag{}, false, err
	} else if ok {
		return tag, true, nil
	}

	var out []*github.RepositoryTag
	_, err := a.call(ctx, func(ctx context.Context, api rawAPI) (*github.Response, error) {
		tags, resp, err := api.ListTags(ctx, a.coords.Owner, a.coords.Repo, &github.ListOptions{PerPage: 100})
		out = tags
		return resp, err
	})
	if err != nil {
		return model.Tag{}, false, err
	}
	for _, t := range out {
		if t.GetName() == name {
			hash := ""
			if commit := t.GetCommit(); commit != nil {
				hash = commit.GetSHA()
			}
			return model.Tag{Name: name, CommitHash: hash}, true, nil
		}
	}
	return model.Tag{}, false, nil
}

// splitMessage separates a commit message's subject line from the count of
// non-blank body lines, matching internal/localgit's convention.
func splitMessage(msg string) (string, int) {
	lines := strings.Split(msg, "\n")
	subject := lines[0]
	bodyLines := 0
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) != "" {
			bodyLines++
		}
	}
	return subject, bodyLines
}
