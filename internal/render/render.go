// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package render is the renderer contract's implementation (spec §6): it
// takes one of Enriched | File | TagOnly plus the notices collected along
// the way and writes a human-readable report. It never mutates its input
// and performs no resolution logic of its own, matching the teacher's
// internal/report/color.go gating pattern for terminal color.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/davetashner/wtg/internal/model"
)

// Printer renders resolved query results to w, coloring output the way
// internal/report/color.go colors stringer's health dashboard: bold
// section titles, and values colored by category.
type Printer struct {
	w         io.Writer
	bold      *color.Color
	label     *color.Color
	highlight *color.Color
	warn      *color.Color
}

// NewPrinter builds a Printer writing to w. noColor disables all ANSI
// output, mirroring --no-color/NO_COLOR handling in cmd/wtg.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	p := &Printer{
		w:         w,
		bold:      color.New(color.Bold),
		label:     color.New(color.FgCyan),
		highlight: color.New(color.FgGreen),
		warn:      color.New(color.FgYellow),
	}
	if noColor {
		p.bold.DisableColor()
		p.label.DisableColor()
		p.highlight.DisableColor()
		p.warn.DisableColor()
	}
	return p
}

// Render writes thing's report, followed by any notices. It never mutates
// thing.
func (p *Printer) Render(thing model.IdentifiedThing, notices []model.Notice) {
	switch thing.Kind {
	case model.KindEnriched:
		p.renderEnriched(thing.Enriched)
	case model.KindFile:
		p.renderFile(thing.File)
	case model.KindTagOnly:
		p.renderTagOnly(thing.TagOnly, thing.TagOnlyURL)
	}
	for _, n := range notices {
		p.renderNotice(n)
	}
}

func (p *Printer) section(title string) {
	fmt.Fprintln(p.w, p.bold.Sprint(title))
}

func (p *Printer) field(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(p.w, "  %s %s\n", p.label.Sprint(label+":"), value)
}

func (p *Printer) renderEnriched(info *model.EnrichedInfo) {
	p.section(fmt.Sprintf("what shipped %s", info.EntryPoint.String()))

	if info.Commit != nil {
		p.renderCommit(info.Commit)
	}
	if info.PR != nil {
		p.renderPR(info.PR)
	}
	if info.Issue != nil {
		p.renderIssue(info.Issue)
	}
	if info.Release != nil {
		p.renderRelease(info.Release)
	}
}

func (p *Printer) renderCommit(c *model.Commit) {
	p.field("commit", p.highlight.Sprint(c.ShortHash)+" "+c.Subject)
	author := c.AuthorName
	if c.AuthorLogin != "" {
		author = c.AuthorLogin
	}
	if c.AuthorURL != "" {
		author += " (" + c.AuthorURL + ")"
	}
	p.field("author", author)
	if !c.Date.IsZero() {
		p.field("date", c.Date.Format(time.RFC3339))
	}
	p.field("url", c.CommitURL)
}

func (p *Printer) renderPR(pr *model.PullRequest) {
	title := fmt.Sprintf("#%d %s", pr.Number, pr.Title)
	if pr.Coords != nil {
		title = pr.Coords.String() + title
	}
	p.field("pull request", title)
	p.field("pr state", pr.State)
	p.field("pr author", pr.Author)
	p.field("pr url", pr.URL)
}

func (p *Printer) renderIssue(issue *model.Issue) {
	state := "open"
	if issue.State == model.IssueClosed {
		state = "closed"
	}
	p.field("issue", fmt.Sprintf("#%d %s", issue.Number, issue.Title))
	p.field("issue state", state)
	p.field("issue author", issue.Author)
	p.field("issue url", issue.URL)
	if issue.TimelineMayBeIncomplete {
		fmt.Fprintln(p.w, "  "+p.warn.Sprint("note: closing-PR timeline may be incomplete"))
	}
}

func (p *Printer) renderRelease(tag *model.Tag) {
	name := tag.Name
	if tag.IsRelease && tag.ReleaseName != "" {
		name = tag.ReleaseName
	}
	p.field("shipped in", p.highlight.Sprint(name))
	url := tag.ReleaseURL
	p.field("release url", url)
}

func (p *Printer) renderFile(f *model.FileResult) {
	p.section(fmt.Sprintf("file %s", f.File.Path))
	p.field("last commit", p.highlight.Sprint(f.File.LastCommit.ShortHash)+" "+f.File.LastCommit.Subject)
	p.field("commit url", f.CommitURL)

	for i, a := range f.File.PreviousAuthors {
		line := fmt.Sprintf("%s %s <%s>", a.ShortHash, a.Name, a.Email)
		if i < len(f.AuthorURLs) && f.AuthorURLs[i] != "" {
			line += " (" + f.AuthorURLs[i] + ")"
		}
		p.field("previously touched by", line)
	}

	if f.Release != nil {
		p.renderRelease(f.Release)
	}
}

func (p *Printer) renderTagOnly(tag *model.Tag, url string) {
	p.section(fmt.Sprintf("tag %s", tag.Name))
	if tag.IsSemver() {
		p.field("semver", "yes")
	}
	if tag.IsRelease {
		p.field("release", tag.ReleaseName)
	}
	p.field("url", url)
}

func (p *Printer) renderNotice(n model.Notice) {
	msg := noticeMessage(n)
	if msg == "" {
		return
	}
	fmt.Fprintln(p.w, p.warn.Sprint("notice: ")+msg)
}

func noticeMessage(n model.Notice) string {
	switch n.Kind {
	case model.NoticeCloningRepo:
		return "cloning repository into local cache"
	case model.NoticeCloneSucceeded:
		return "clone complete"
	case model.NoticeCloneFallbackToBare:
		return "filtered clone failed, fell back to a full bare clone"
	case model.NoticeCacheUpdateFailed:
		return "cache refresh failed, continuing with stale state: " + n.Detail
	case model.NoticeShallowRepoDetected:
		return "local repository is shallow; pass --fetch to allow fetching missing history"
	case model.NoticeGhRateLimitHit:
		return "hit a GitHub API rate limit"
	case model.NoticeApiOnly:
		return "falling back to the GitHub API only: " + n.Detail
	case model.NoticeNoRemotes:
		return "no git remotes configured; local-only results"
	case model.NoticeUnreachableGitHub:
		return "a GitHub remote is configured but no API client could be built"
	case model.NoticeMixedRemotes:
		return "multiple non-GitHub remotes configured; local-only results"
	case model.NoticeUnsupportedHost:
		return "remote host is not GitHub, detection only: " + n.Detail
	case model.NoticeCrossProjectFallbackToApi:
		return "following a cross-repository reference to " + n.Detail
	default:
		return ""
	}
}
