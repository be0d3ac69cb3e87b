// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package model holds the data types shared across wtg's query-resolution
// engine: coordinates, queries, commits, tags, pull requests, issues, and
// the enriched report assembled from them.
package model

import "time"

// RepoCoords identifies a GitHub repository by owner and name. Both fields
// are restricted to [A-Za-z0-9._-]+ by the input parser before a RepoCoords
// is constructed; equality here is case-sensitive (as GitHub itself treats
// repository paths), but forge hosts are matched case-insensitively by the
// input parser.
type RepoCoords struct {
	Owner string
	Repo  string
}

// String renders "owner/repo".
func (c RepoCoords) String() string {
	return c.Owner + "/" + c.Repo
}

// Equal reports whether two RepoCoords name the same owner and repo.
func (c RepoCoords) Equal(other RepoCoords) bool {
	return c.Owner == other.Owner && c.Repo == other.Repo
}

// QueryKind discriminates the variants of Query.
type QueryKind int

const (
	// QueryGitCommit identifies a commit by short or full hex hash.
	QueryGitCommit QueryKind = iota
	// QueryIssue identifies an issue by number.
	QueryIssue
	// QueryPr identifies a pull request by number.
	QueryPr
	// QueryIssueOrPr identifies a number whose issue/PR nature is not yet known.
	QueryIssueOrPr
	// QueryFilePath identifies a repo-relative file path.
	QueryFilePath
	// QueryUnknown identifies a token whose kind must be decided by probing
	// the backend.
	QueryUnknown
)

// Query is a tagged union over the ways a user can name "what shipped this".
// Exactly one of Hash/Number/Path/Token is meaningful, selected by Kind.
type Query struct {
	Kind   QueryKind
	Hash   string // QueryGitCommit
	Number uint64 // QueryIssue, QueryPr, QueryIssueOrPr
	Path   string // QueryFilePath
	Token  string // QueryUnknown
}

// GitCommitQuery builds a QueryGitCommit.
func GitCommitQuery(hash string) Query { return Query{Kind: QueryGitCommit, Hash: hash} }

// IssueQuery builds a QueryIssue.
func IssueQuery(n uint64) Query { return Query{Kind: QueryIssue, Number: n} }

// PrQuery builds a QueryPr.
func PrQuery(n uint64) Query { return Query{Kind: QueryPr, Number: n} }

// IssueOrPrQuery builds a QueryIssueOrPr.
func IssueOrPrQuery(n uint64) Query { return Query{Kind: QueryIssueOrPr, Number: n} }

// FilePathQuery builds a QueryFilePath.
func FilePathQuery(path string) Query { return Query{Kind: QueryFilePath, Path: path} }

// UnknownQuery builds a QueryUnknown.
func UnknownQuery(token string) Query { return Query{Kind: QueryUnknown, Token: token} }

// String renders a human-readable entry-point label, used as EnrichedInfo's
// EntryPoint string and in diagnostic messages.
func (q Query) String() string {
	switch q.Kind {
	case QueryGitCommit:
		return q.Hash
	case QueryIssue:
		return "#" + itoa(q.Number)
	case QueryPr:
		return "#" + itoa(q.Number)
	case QueryIssueOrPr:
		return "#" + itoa(q.Number)
	case QueryFilePath:
		return q.Path
	case QueryUnknown:
		return q.Token
	default:
		return ""
	}
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// ParsedInput is the output of the input parser: a query, plus repository
// coordinates when the user supplied a URL or -r flag explicitly.
type ParsedInput struct {
	Coords *RepoCoords
	Query  Query
}

// Commit describes a single commit, enriched with best-effort GitHub
// metadata (URLs, login) when available.
type Commit struct {
	Hash         string
	ShortHash    string // always hash[:min(7,len(hash))]
	Subject      string
	BodyLines    int
	AuthorName   string
	AuthorEmail  string
	AuthorLogin  string
	AuthorURL    string
	CommitURL    string
	Date         time.Time
}

// NewCommit constructs a Commit, deriving ShortHash from Hash.
func NewCommit(hash, subject string, bodyLines int, authorName, authorEmail string, date time.Time) Commit {
	return Commit{
		Hash:        hash,
		ShortHash:   ShortHash(hash),
		Subject:     subject,
		BodyLines:   bodyLines,
		AuthorName:  authorName,
		AuthorEmail: authorEmail,
		Date:        date,
	}
}

// ShortHash returns the first min(7, len(hash)) characters of hash.
func ShortHash(hash string) string {
	n := 7
	if len(hash) < n {
		n = len(hash)
	}
	return hash[:n]
}

// PreviousAuthor is one entry in a File's touch history.
type PreviousAuthor struct {
	ShortHash string
	Name      string
	Email     string
}

// MaxPreviousAuthors bounds File.PreviousAuthors per spec §3.
const MaxPreviousAuthors = 4

// File describes the commit that last touched a path, plus up to
// MaxPreviousAuthors subsequent touches.
type File struct {
	Path            string
	LastCommit      Commit
	PreviousAuthors []PreviousAuthor
}

// Semver is a recognized tag version, per the grammar in internal/semverx.
type Semver struct {
	Major          uint32
	Minor          uint32
	Patch          *uint32
	Build          *uint32
	PreRelease     *string
	BuildMetadata  *string
}

// IsStable reports whether no prerelease, build, or build-metadata component
// is present.
func (s Semver) IsStable() bool {
	return s.PreRelease == nil && s.BuildMetadata == nil && s.Build == nil
}

// Tag describes a git tag, optionally enriched with GitHub release data.
type Tag struct {
	Name        string
	CommitHash  string
	Semver      *Semver
	CreatedAt   time.Time
	IsRelease   bool
	ReleaseName string
	ReleaseURL  string
	PublishedAt *time.Time
}

// IsSemver reports whether Semver recognition succeeded for this tag.
func (t Tag) IsSemver() bool { return t.Semver != nil }

// PullRequest describes a pull request, possibly in a different repository
// than the one the query started from (see EnrichedInfo cross-repo notes).
type PullRequest struct {
	Number         uint64
	Coords         *RepoCoords
	Title          string
	Body           string
	State          string
	URL            string
	Merged         bool
	MergeCommitSHA string
	Author         string
	AuthorURL      string
	CreatedAt      *time.Time
}

// IssueState discriminates Issue.State.
type IssueState int

const (
	// IssueOpen marks an issue that has not been closed.
	IssueOpen IssueState = iota
	// IssueClosed marks a closed issue.
	IssueClosed
)

// Issue describes a GitHub issue, including the pull requests that closed
// it (see closing-PR discovery in internal/ghapi).
type Issue struct {
	Number                 uint64
	Title                  string
	Body                   string
	State                  IssueState
	URL                    string
	Author                 string
	AuthorURL              string
	ClosingPRs             []PullRequest
	CreatedAt              *time.Time
	TimelineMayBeIncomplete bool
}

// EnrichedInfo is the assembled "what shipped this" report. At least one of
// Commit/PR/Issue/Release is non-nil on a successful resolution.
type EnrichedInfo struct {
	EntryPoint Query
	Commit     *Commit
	PR         *PullRequest
	Issue      *Issue
	Release    *Tag
}

// IdentifiedThingKind discriminates IdentifiedThing.
type IdentifiedThingKind int

const (
	// KindEnriched wraps an EnrichedInfo (commit/PR/issue entry points).
	KindEnriched IdentifiedThingKind = iota
	// KindFile wraps a File result.
	KindFile
	// KindTagOnly wraps a bare tag lookup.
	KindTagOnly
)

// IdentifiedThing is the resolver's output: one of Enriched, File, or
// TagOnly, discriminated by Kind.
type IdentifiedThing struct {
	Kind          IdentifiedThingKind
	Enriched      *EnrichedInfo
	File          *FileResult
	TagOnly       *Tag
	TagOnlyURL    string
}

// FileResult is the resolved form of a QueryFilePath: the file's last-touch
// history plus derived author profile URLs and the release that shipped it.
type FileResult struct {
	File       File
	CommitURL  string
	AuthorURLs []string // parallel to File.PreviousAuthors; "" when unknown
	Release    *Tag
}

// FetchState is the per-cache-entry record of what has been synchronized
// from a remote. Flags are monotonic: they only ever transition false→true,
// and FetchedCommits only grows.
type FetchState struct {
	FullMetadataSynced bool
	FetchedCommits     map[string]bool
	TagsSynced         bool
}

// NewFetchState returns a zero-valued, ready-to-use FetchState.
func NewFetchState() *FetchState {
	return &FetchState{FetchedCommits: make(map[string]bool)}
}
