// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

package semverx

import (
	"reflect"
	"testing"
)

func FuzzParse(f *testing.F) {
	f.Add("v1.2.3")
	f.Add("py-v1.0.0b1")
	f.Add("rust-1.2.3.4+build")
	f.Add("")
	f.Add("v")
	f.Add("1." + string(rune(0)))

	f.Fuzz(func(t *testing.T, tag string) {
		if len(tag) > 256 {
			return
		}
		v, ok := Parse(tag)
		if !ok {
			return
		}
		// Crash-freedom + invariant 4: a successful parse must round-trip.
		v2, ok2 := Parse(tag)
		if !ok2 || !reflect.DeepEqual(v, v2) {
			t.Fatalf("Parse(%q) not idempotent: %+v vs %+v", tag, v, v2)
		}
	})
}
