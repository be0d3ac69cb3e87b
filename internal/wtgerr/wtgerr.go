// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package wtgerr defines the typed error taxonomy callers branch on (spec
// §7). Each constructor wraps a Kind plus a message so errors.Is/As work
// against the Kind while %w-wrapped causes are preserved for %v formatting.
package wtgerr

import "fmt"

// Kind discriminates the error taxonomy of spec §7.
type Kind int

const (
	// KindNotInGitRepo means no enclosing git repository was found.
	KindNotInGitRepo Kind = iota
	// KindNotFound means all resolution paths were exhausted.
	KindNotFound
	// KindUnsupported means a backend capability is absent. Internal to the
	// resolver; it is mapped to NotFound or surfaced as a notice before
	// reaching the CLI boundary.
	KindUnsupported
	// KindGitHubClientFailed means the token flow yielded no usable client
	// for an explicit-coordinates invocation.
	KindGitHubClientFailed
	// KindGhConnectionLost means the backup client could not be built after
	// the main client failed.
	KindGhConnectionLost
	// KindGhNoClient means neither main nor backup client is available.
	KindGhNoClient
	// KindGhRateLimit means a 429, or a 403 carrying a rate-limit message.
	KindGhRateLimit
	// KindGhSaml means a 403 carrying a SAML SSO enforcement marker.
	KindGhSaml
	// KindGhBadCredentials means a 401 Bad Credentials response.
	KindGhBadCredentials
	// KindGhForbidden means any other discriminated 403.
	KindGhForbidden
	// KindTimeout means a request exceeded its per-request deadline.
	KindTimeout
	// KindInputEmpty means the raw input was empty or all whitespace.
	KindInputEmpty
	// KindInputSecurityRejection means sanitization rejected the input (a
	// control character, an absolute or ".."-containing path).
	KindInputSecurityRejection
	// KindInputNotGitHubURL means a URL-shaped input pointed at a non-GitHub
	// host.
	KindInputNotGitHubURL
	// KindInputMalformedGitHubURL means a GitHub-hosted URL did not match any
	// recognized route.
	KindInputMalformedGitHubURL
	// KindIO is an adapter-level filesystem/process error pass-through.
	KindIO
	// KindGit is an adapter-level go-git error pass-through.
	KindGit
)

// Error is the concrete type every wtg-internal failure is returned as.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes Cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, wtgerr.New(wtgerr.KindNotFound, "")) — but the
// idiomatic check is Kind-based via wtgerr.KindOf, below.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, reporting
// ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind, true
	}
	return 0, false
}

// asError walks err's Unwrap chain looking for a *Error, mirroring
// errors.As without importing it twice at every call site.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
