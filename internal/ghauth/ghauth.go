// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package ghauth sources a GitHub token and builds the main and backup API
// clients used by internal/ghapi (spec §4.5 auth policy).
package ghauth

import (
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/go-github/v68/github"
	"gopkg.in/yaml.v3"
)

// connectTimeout and readTimeout bound the client's own dial and overall
// request lifecycle (spec §4.5/§5); the adapter layer additionally imposes
// a 5s per-request deadline outside the client.
const (
	connectTimeout = 5 * time.Second
	readTimeout    = 30 * time.Second
)

// newHTTPClient builds the http.Client every github.Client in this package
// is constructed with, so both the main and backup clients share the same
// connect/read timeout bounds.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: readTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
	}
}

// hostsFile mirrors the relevant shape of gh's ~/.config/gh/hosts.yml:
//
//	github.com:
//	  oauth_token: gho_...
type hostsFile map[string]struct {
	OAuthToken string `yaml:"oauth_token"`
	User       string `yaml:"user"`
}

// Token resolves a GitHub token from, in order: WTG_GH_NO_AUTH (forces
// anonymous), GITHUB_TOKEN, GH_TOKEN, then the gh CLI's hosts.yml for
// github.com. It returns "" (never an error) when no token is found —
// anonymous access is always a legitimate outcome, not a failure.
func Token() string {
	if os.Getenv("WTG_GH_NO_AUTH") != "" {
		return ""
	}
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	if t := os.Getenv("GH_TOKEN"); t != "" {
		return t
	}
	return tokenFromGhConfig()
}

// tokenFromGhConfig reads the gh CLI's hosts.yml. Any read or parse failure
// is treated as "no token available", never propagated — this is a
// best-effort convenience lookup, not a required config source.
func tokenFromGhConfig() string {
	for _, dir := range ghConfigDirCandidates() {
		data, err := os.ReadFile(filepath.Join(dir, "hosts.yml")) //nolint:gosec // user config path
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return ""
		}
		var hosts hostsFile
		if err := yaml.Unmarshal(data, &hosts); err != nil {
			return ""
		}
		if entry, ok := hosts["github.com"]; ok && entry.OAuthToken != "" {
			return entry.OAuthToken
		}
		return ""
	}
	return ""
}

// ghConfigDirCandidates returns the directories gh's own config resolution
// checks, in priority order: $GH_CONFIG_DIR, $XDG_CONFIG_HOME/gh,
// ~/.config/gh, then the platform config dir (os.UserConfigDir)/gh.
func ghConfigDirCandidates() []string {
	var dirs []string
	if d := os.Getenv("GH_CONFIG_DIR"); d != "" {
		dirs = append(dirs, d)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "gh"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "gh"))
	}
	if cfg, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(cfg, "gh"))
	}
	return dirs
}

// Clients holds the main client (token-authenticated when a token was
// found, anonymous otherwise) and a lazily-built anonymous backup client
// used for the fallback policy in spec §4.5.
type Clients struct {
	Main       *github.Client
	mainIsAuth bool
	backup     *github.Client
}

// NewClients builds the main client from Token(). The backup client is
// constructed on first use via Backup(), not eagerly — most invocations
// never need it.
func NewClients() *Clients {
	token := Token()
	main := github.NewClient(newHTTPClient())
	if token != "" {
		main = main.WithAuthToken(token)
	}
	return &Clients{Main: main, mainIsAuth: token != ""}
}

// MainIsAuthenticated reports whether Main carries a token.
func (c *Clients) MainIsAuthenticated() bool { return c.mainIsAuth }

// Backup returns the anonymous fallback client, building it on first call.
// It returns nil when Main is itself anonymous — retrying an anonymous
// request against another anonymous client can never succeed differently,
// so there is no backup to fall back to.
func (c *Clients) Backup() *github.Client {
	if !c.mainIsAuth {
		return nil
	}
	if c.backup == nil {
		c.backup = github.NewClient(newHTTPClient())
	}
	return c.backup
}
