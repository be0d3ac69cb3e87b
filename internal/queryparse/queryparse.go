// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package queryparse classifies a raw CLI argument into a typed Query, and
// recognizes GitHub repository coordinates from a URL, SSH remote, or
// "owner/repo" shorthand (spec §4.1).
package queryparse

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/davetashner/wtg/internal/model"
	"github.com/davetashner/wtg/internal/wtgerr"
)

// Parse classifies raw into a ParsedInput. If repoFlag is non-empty it is
// parsed as explicit repository coordinates and raw is classified purely as
// an identifier (no URL parsing is attempted on raw in that case).
func Parse(raw string, repoFlag string) (model.ParsedInput, error) {
	raw = strings.TrimSpace(raw)

	if repoFlag != "" {
		coords, err := ParseRepoCoords(repoFlag)
		if err != nil {
			return model.ParsedInput{}, wtgerr.Wrap(wtgerr.KindInputMalformedGitHubURL, "parsing -r/--repo", err)
		}
		q, err := parseIdentifier(raw)
		if err != nil {
			return model.ParsedInput{}, err
		}
		return model.ParsedInput{Coords: &coords, Query: q}, nil
	}

	if raw == "" {
		return model.ParsedInput{}, wtgerr.New(wtgerr.KindInputEmpty, "empty input")
	}

	if looksLikeURL(raw) {
		coords, q, err := parseGitHubURL(raw)
		if err != nil {
			return model.ParsedInput{}, err
		}
		return model.ParsedInput{Coords: &coords, Query: q}, nil
	}

	q, err := parseIdentifier(raw)
	if err != nil {
		return model.ParsedInput{}, err
	}
	return model.ParsedInput{Query: q}, nil
}

// parseIdentifier classifies a non-URL token: sanitize it, recognize a
// leading '#' + digits as an ambiguous issue-or-PR number, and otherwise
// defer classification to the resolver as Unknown.
func parseIdentifier(raw string) (model.Query, error) {
	token, err := sanitize(raw)
	if err != nil {
		return model.Query{}, err
	}

	if rest, ok := strings.CutPrefix(token, "#"); ok {
		if n, err := strconv.ParseUint(rest, 10, 64); err == nil {
			return model.IssueOrPrQuery(n), nil
		}
	}

	return model.UnknownQuery(token), nil
}

// sanitize trims whitespace, rejects empty input, and rejects any control
// character (spec §4.1, invariant 2 in §8).
func sanitize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", wtgerr.New(wtgerr.KindInputEmpty, "empty input")
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", wtgerr.New(wtgerr.KindInputSecurityRejection,
				"input contains control characters (null bytes, newlines, etc.)")
		}
	}
	return trimmed, nil
}

// looksLikeURL reports whether raw has a URL-ish shape: a scheme, a
// scheme-relative "//" prefix, an SSH remote prefix, or an explicit
// "://" somewhere in the string.
func looksLikeURL(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//") ||
		strings.HasPrefix(lower, "git@") ||
		strings.Contains(lower, "://")
}

// parseGitHubURL parses raw as a GitHub URL and extracts coordinates plus
// the route-specific query (spec §4.1 "GitHub URL routes recognized").
// Malformed GitHub URLs fail; they never fall back to identifier parsing.
func parseGitHubURL(raw string) (model.RepoCoords, model.Query, error) {
	segments, isAPI, err := splitGitHubSegments(raw)
	if err != nil {
		return model.RepoCoords{}, model.Query{}, err
	}

	coords, rest, err := coordsFromSegments(segments, isAPI)
	if err != nil {
		return model.RepoCoords{}, model.Query{}, err
	}

	if len(rest) == 0 {
		return model.RepoCoords{}, model.Query{},
			wtgerr.New(wtgerr.KindInputMalformedGitHubURL, "no route found in GitHub URL")
	}

	switch rest[0] {
	case "commit":
		if len(rest) < 2 {
			return model.RepoCoords{}, model.Query{}, malformed("commit URL missing hash")
		}
		hash, err := sanitize(rest[1])
		if err != nil {
			return model.RepoCoords{}, model.Query{}, err
		}
		return coords, model.GitCommitQuery(hash), nil

	case "issues":
		n, err := routeNumber(rest)
		if err != nil {
			return model.RepoCoords{}, model.Query{}, err
		}
		return coords, model.IssueQuery(n), nil

	case "pull":
		n, err := routeNumber(rest)
		if err != nil {
			return model.RepoCoords{}, model.Query{}, err
		}
		return coords, model.PrQuery(n), nil

	case "blob", "tree":
		// rest[0] is "blob"/"tree", rest[1] is the ref (consumed and
		// discarded — see spec §9 open question on refs containing '/'),
		// rest[2:] is the path.
		if len(rest) < 3 {
			return model.RepoCoords{}, model.Query{}, malformed("missing ref or path in blob/tree URL")
		}
		path := strings.Join(rest[2:], "/")
		if err := ValidateFilePath(path); err != nil {
			return model.RepoCoords{}, model.Query{}, err
		}
		return coords, model.FilePathQuery(path), nil

	default:
		return model.RepoCoords{}, model.Query{}, malformed("unrecognized GitHub URL route: " + rest[0])
	}
}

func routeNumber(rest []string) (uint64, error) {
	n, err := strconv.ParseUint(rest[1], 10, 64)
	if err != nil {
		return 0, malformed("non-numeric issue/PR number: " + rest[1])
	}
	return n, nil
}

func malformed(msg string) error {
	return wtgerr.New(wtgerr.KindInputMalformedGitHubURL, msg)
}

// ParseRepoCoords parses repo coordinates from "owner/repo", a GitHub HTTP(S)
// URL (including api.github.com/repos/...), or a git@github.com SSH remote.
func ParseRepoCoords(raw string) (model.RepoCoords, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.RepoCoords{}, wtgerr.New(wtgerr.KindInputEmpty, "empty repository coordinates")
	}

	if segments, ok := sshSegments(trimmed); ok {
		coords, _, err := coordsFromSegments(segments, false)
		return coords, err
	}

	if segments, isAPI, err := splitGitHubSegments(trimmed); err == nil {
		coords, _, cerr := coordsFromSegments(segments, isAPI)
		return coords, cerr
	}

	// Plain "owner/repo" shorthand.
	parts := strings.Split(trimmed, "/")
	if len(parts) == 2 {
		owner, ok1 := sanitizeOwnerRepoSegment(parts[0])
		repo, ok2 := sanitizeOwnerRepoSegment(strings.TrimSuffix(parts[1], ".git"))
		if ok1 && ok2 {
			return model.RepoCoords{Owner: owner, Repo: repo}, nil
		}
	}

	return model.RepoCoords{}, wtgerr.New(wtgerr.KindInputNotGitHubURL, "not a recognizable GitHub repository reference: "+raw)
}

// splitGitHubSegments normalizes raw (SSH or HTTP(S)) into path segments
// plus whether the host was api.github.com. It tries the
// git@github.com: SSH form via sshSegments first, then URL parsing, and
// returns NotGitHubUrl for a well-formed non-GitHub URL.
func splitGitHubSegments(raw string) ([]string, bool, error) {
	if segments, ok := sshSegments(raw); ok {
		return segments, false, nil
	}

	u, ok := parseWithHTTPSFallback(raw)
	if !ok {
		return nil, false, wtgerr.New(wtgerr.KindInputNotGitHubURL, "not a parseable URL: "+raw)
	}

	host := strings.ToLower(strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."))
	isAPI := false
	switch host {
	case "github.com":
		// isAPI stays false
	case "api.github.com":
		isAPI = true
	default:
		return nil, false, wtgerr.New(wtgerr.KindInputNotGitHubURL, "non-GitHub host: "+host)
	}

	u.Fragment = ""
	u.RawQuery = ""
	return collectSegments(u.Path), isAPI, nil
}

// sshSegments recognizes the git@github.com:owner/repo[/more] form.
func sshSegments(raw string) ([]string, bool) {
	if !strings.HasPrefix(raw, "git@github.com:") {
		return nil, false
	}
	rest := strings.TrimPrefix(raw, "git@github.com:")
	if idx := strings.IndexAny(rest, "#?"); idx >= 0 {
		rest = rest[:idx]
	}
	return collectSegments(rest), true
}

// parseWithHTTPSFallback parses raw as a URL, adding an https:// scheme for
// bare "github.com/..." or "//github.com/..." forms.
func parseWithHTTPSFallback(raw string) (*url.URL, bool) {
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		return u, true
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "github.com/"), strings.HasPrefix(lower, "www.github.com/"):
		if u, err := url.Parse("https://" + raw); err == nil {
			return u, true
		}
	case strings.HasPrefix(lower, "//github.com/"):
		if u, err := url.Parse("https:" + raw); err == nil {
			return u, true
		}
	}
	return nil, false
}

func collectSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// coordsFromSegments extracts owner/repo from path segments, honoring the
// api.github.com extra "/repos/" prefix segment, and returns the remaining
// segments for route dispatch.
func coordsFromSegments(segments []string, isAPI bool) (model.RepoCoords, []string, error) {
	minSegments := 2
	ownerIdx := 0
	if isAPI {
		minSegments = 3
		ownerIdx = 1
	}
	if len(segments) < minSegments {
		return model.RepoCoords{}, nil, malformed("missing owner/repo in URL")
	}

	owner, ok := sanitizeOwnerRepoSegment(segments[ownerIdx])
	if !ok {
		return model.RepoCoords{}, nil, malformed("invalid owner segment")
	}
	repo, ok := sanitizeOwnerRepoSegment(strings.TrimSuffix(segments[ownerIdx+1], ".git"))
	if !ok {
		return model.RepoCoords{}, nil, malformed("invalid repo segment")
	}

	return model.RepoCoords{Owner: owner, Repo: repo}, segments[ownerIdx+2:], nil
}

func sanitizeOwnerRepoSegment(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	for _, r := range trimmed {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.') {
			return "", false
		}
		if r > unicode.MaxASCII {
			return "", false
		}
	}
	return trimmed, true
}

// ValidateFilePath enforces spec §4.1's file-path safety rule: non-empty,
// not absolute, no ".." component.
func ValidateFilePath(path string) error {
	if path == "" {
		return wtgerr.New(wtgerr.KindInputEmpty, "empty file path")
	}
	if strings.HasPrefix(path, "/") {
		return wtgerr.New(wtgerr.KindInputSecurityRejection, "an absolute path snuck in: "+path)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return wtgerr.New(wtgerr.KindInputSecurityRejection, "some fishy `..` in the path: "+path)
		}
	}
	return nil
}
