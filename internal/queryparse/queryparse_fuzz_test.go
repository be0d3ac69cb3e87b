// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

package queryparse

import "testing"

// FuzzParse asserts crash-freedom over arbitrary raw input: every call
// either returns a usable ParsedInput or a *wtgerr.Error, never a panic.
func FuzzParse(f *testing.F) {
	f.Add("octocat/hello-world#42")
	f.Add("https://github.com/octocat/hello-world/blob/main/a/../b")
	f.Add("git@github.com:octocat/hello-world.git")
	f.Add("")
	f.Add("\x00\x01\x02")
	f.Add("https://github.com/")

	f.Fuzz(func(t *testing.T, raw string) {
		if len(raw) > 512 {
			return
		}
		_, _ = Parse(raw, "")
	})
}
