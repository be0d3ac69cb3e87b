// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package semverx recognizes and parses tag names across the version
// conventions wtg encounters in the wild: plain SemVer, a leading 'v', a
// lowercase language prefix ("py-", "rust-"), 2-, 3-, or 4-part numeric
// versions, dash-style prerelease/build metadata, and Python-style
// prerelease suffixes (a1, b1, rc1) glued directly onto the version.
//
// This is hand-rolled on top of regexp rather than golang.org/x/mod/semver:
// x/mod's parser enforces strict three-part SemVer and has no notion of a
// language prefix or a concatenated Python-style prerelease, so it cannot
// express this grammar. See DESIGN.md for the corresponding justification.
package semverx

import (
	"regexp"
	"strconv"

	"github.com/davetashner/wtg/internal/model"
)

// semverPattern mirrors the grammar of spec §4.2: an optional lowercase
// prefix + hyphen, an optional 'v', MAJOR.MINOR[.PATCH[.BUILD]], a
// prerelease in either dash style or Python style, and optional build
// metadata.
var semverPattern = regexp.MustCompile(
	`^(?:[a-z]+-)?v?(\d+)\.(\d+)(?:\.(\d+))?(?:\.(\d+))?` +
		`(?:(?:-([a-zA-Z0-9.-]+))|(?:([a-z]+)(\d+)))?(?:\+(.+))?$`,
)

// Parse recognizes tag as a Semver, returning (v, true) on success. On
// failure it returns the zero value and false.
func Parse(tag string) (model.Semver, bool) {
	m := semverPattern.FindStringSubmatch(tag)
	if m == nil {
		return model.Semver{}, false
	}

	major, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return model.Semver{}, false
	}
	minor, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return model.Semver{}, false
	}

	v := model.Semver{Major: uint32(major), Minor: uint32(minor)}

	if m[3] != "" {
		patch, err := strconv.ParseUint(m[3], 10, 32)
		if err != nil {
			return model.Semver{}, false
		}
		p := uint32(patch)
		v.Patch = &p
	}
	if m[4] != "" {
		build, err := strconv.ParseUint(m[4], 10, 32)
		if err != nil {
			return model.Semver{}, false
		}
		b := uint32(build)
		v.Build = &b
	}

	switch {
	case m[5] != "":
		// Dash-style prerelease: -alpha, -beta.1, -rc.1
		pre := m[5]
		v.PreRelease = &pre
	case m[6] != "":
		// Python-style prerelease: a1, b1, rc1 — the pattern captures the
		// letters and the (required) digits separately; they are rejoined
		// here. A bare letter group without digits (e.g. "1.0.0rc") does
		// not parse.
		pre := m[6] + m[7]
		v.PreRelease = &pre
	}

	if m[8] != "" {
		meta := m[8]
		v.BuildMetadata = &meta
	}

	return v, true
}

// IsSemver reports whether Parse would succeed for tag.
func IsSemver(tag string) bool {
	_, ok := Parse(tag)
	return ok
}

// IsStable reports whether tag parses as a Semver with no prerelease, build,
// or build-metadata component.
func IsStable(tag string) bool {
	v, ok := Parse(tag)
	return ok && v.IsStable()
}
