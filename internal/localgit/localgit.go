// Copyright 2026 The Stringer Authors
// SPDX-License-Identifier: MIT

// Package localgit reads commits, file history, and tags from a local git
// repository via internal/testable's GitOpener/GitRepository seam, so unit
// tests never need a real on-disk repository (spec §4.4 Local Git Adapter).
package localgit

import (
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/davetashner/wtg/internal/model"
	"github.com/davetashner/wtg/internal/semverx"
	"github.com/davetashner/wtg/internal/testable"
	"github.com/davetashner/wtg/internal/wtgerr"
)

// Repo wraps a testable.GitRepository with wtg's commit/file/tag queries.
type Repo struct {
	repo testable.GitRepository
	path string
}

// Open opens the repository at path using opener.
func Open(opener testable.GitOpener, path string) (*Repo, error) {
	r, err := opener.PlainOpen(path)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return nil, wtgerr.Wrap(wtgerr.KindNotInGitRepo, "no git repository at "+path, err)
		}
		return nil, wtgerr.Wrap(wtgerr.KindGit, "opening repository at "+path, err)
	}
	return &Repo{repo: r, path: path}, nil
}

// Path returns the filesystem path the repository was opened from.
func (r *Repo) Path() string { return r.path }

// FindCommit resolves hashPrefix (full or abbreviated) to a Commit by
// walking history from HEAD. A full 40-hex hash is looked up directly;
// anything shorter is matched by prefix against the commit log.
func (r *Repo) FindCommit(hashPrefix string) (model.Commit, error) {
	if plumbing.IsHash(hashPrefix) {
		obj, err := r.repo.CommitObject(plumbing.NewHash(hashPrefix))
		if err == nil {
			return toModelCommit(obj), nil
		}
	}

	head, err := r.repo.Head()
	if err != nil {
		return model.Commit{}, wtgerr.Wrap(wtgerr.KindGit, "resolving HEAD", err)
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return model.Commit{}, wtgerr.Wrap(wtgerr.KindGit, "walking commit log", err)
	}

	var found *object.Commit
	walkErr := iter.ForEach(func(c *object.Commit) error {
		if strings.HasPrefix(c.Hash.String(), hashPrefix) {
			found = c
			return storer.ErrStop
		}
		return nil
	})
	if walkErr != nil && walkErr != storer.ErrStop {
		return model.Commit{}, wtgerr.Wrap(wtgerr.KindGit, "walking commit log", walkErr)
	}
	if found == nil {
		return model.Commit{}, wtgerr.New(wtgerr.KindNotFound, "no commit matching "+hashPrefix)
	}
	return toModelCommit(found), nil
}


// FindFile locates the most recent commit that touched path (reachable from
// HEAD) and up to model.MaxPreviousAuthors commits before it that also
// touched it.
func (r *Repo) FindFile(path string) (model.File, error) {
	head, err := r.repo.Head()
	if err != nil {
		return model.File{}, wtgerr.Wrap(wtgerr.KindGit, "resolving HEAD", err)
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return model.File{}, wtgerr.Wrap(wtgerr.KindGit, "walking commit log", err)
	}

	var touches []*object.Commit
	walkErr := iter.ForEach(func(c *object.Commit) error {
		touched, err := touchesPath(c, path)
		if err != nil {
			return err
		}
		if touched {
			touches = append(touches, c)
			if len(touches) > model.MaxPreviousAuthors {
				return storer.ErrStop
			}
		}
		return nil
	})
	if walkErr != nil && walkErr != storer.ErrStop {
		return model.File{}, wtgerr.Wrap(wtgerr.KindGit, "walking file history for "+path, walkErr)
	}
	if len(touches) == 0 {
		return model.File{}, wtgerr.New(wtgerr.KindNotFound, "no commit touches "+path)
	}

	f := model.File{
		Path:       path,
		LastCommit: toModelCommit(touches[0]),
	}
	for _, c := range touches[1:] {
		f.PreviousAuthors = append(f.PreviousAuthors, model.PreviousAuthor{
			ShortHash: model.ShortHash(c.Hash.String()),
			Name:      c.Author.Name,
			Email:     c.Author.Email,
		})
	}
	return f, nil
}

// touchesPath reports whether c's blob or filemode for path differs from
// path's entry in c's first parent (or c introduced path entirely).
func touchesPath(c *object.Commit, path string) (bool, error) {
	f, err := c.File(path)
	if err != nil {
		if err == object.ErrFileNotFound {
			return false, nil
		}
		return false, err
	}
	if c.NumParents() == 0 {
		return true, nil
	}
	parent, err := c.Parent(0)
	if err != nil {
		return true, nil
	}
	pf, err := parent.File(path)
	if err != nil {
		return true, nil
	}
	return pf.Blob.Hash != f.Blob.Hash || pf.Mode != f.Mode, nil
}

// Tags returns every tag reachable from the repository's reference set,
// annotated or lightweight, with Semver recognition applied to the name.
func (r *Repo) Tags() ([]model.Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, wtgerr.Wrap(wtgerr.KindGit, "listing tags", err)
	}

	var tags []model.Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := strings.TrimPrefix(ref.Name().String(), "refs/tags/")
		tag, terr := r.resolveTag(name, ref.Hash())
		if terr != nil {
			return terr
		}
		tags = append(tags, tag)
		return nil
	})
	if err != nil {
		return nil, wtgerr.Wrap(wtgerr.KindGit, "resolving tags", err)
	}
	return tags, nil
}

func (r *Repo) resolveTag(name string, refHash plumbing.Hash) (model.Tag, error) {
	tag := model.Tag{Name: name}
	if sv, ok := semverx.Parse(name); ok {
		tag.Semver = &sv
	}

	if annotated, err := r.repo.TagObject(refHash); err == nil {
		tag.CreatedAt = annotated.Tagger.When
		commitHash, cerr := resolveTagCommit(annotated)
		if cerr != nil {
			return model.Tag{}, wtgerr.Wrap(wtgerr.KindGit, "resolving annotated tag target for "+name, cerr)
		}
		tag.CommitHash = commitHash.String()
		return tag, nil
	}

	// Lightweight tag: the ref points directly at the commit.
	commit, err := r.repo.CommitObject(refHash)
	if err != nil {
		return model.Tag{}, wtgerr.Wrap(wtgerr.KindGit, "resolving lightweight tag target for "+name, err)
	}
	tag.CommitHash = commit.Hash.String()
	tag.CreatedAt = commit.Author.When
	return tag, nil
}

// resolveTagCommit follows an annotated tag's target to a commit, walking
// through any chain of nested tag objects.
func resolveTagCommit(tag *object.Tag) (plumbing.Hash, error) {
	obj, err := tag.Object()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	for {
		switch o := obj.(type) {
		case *object.Commit:
			return o.Hash, nil
		case *object.Tag:
			obj, err = o.Object()
			if err != nil {
				return plumbing.ZeroHash, err
			}
		default:
			return plumbing.ZeroHash, wtgerr.New(wtgerr.KindGit, "annotated tag does not resolve to a commit")
		}
	}
}

// TagsContainingCommit returns every tag (from all) whose target commit has
// hash as an ancestor (or is hash itself). A hash that is not in the
// repository is contained by no tag.
func (r *Repo) TagsContainingCommit(hash string, all []model.Tag) ([]model.Tag, error) {
	target, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err == plumbing.ErrObjectNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, wtgerr.Wrap(wtgerr.KindGit, "resolving commit "+hash, err)
	}

	var out []model.Tag
	for _, tag := range all {
		if tag.CommitHash == target.Hash.String() {
			out = append(out, tag)
			continue
		}
		tagCommit, err := r.repo.CommitObject(plumbing.NewHash(tag.CommitHash))
		if err != nil {
			continue
		}
		isAncestor, err := target.IsAncestor(tagCommit)
		if err != nil {
			continue
		}
		if isAncestor {
			out = append(out, tag)
		}
	}
	return out, nil
}

func toModelCommit(c *object.Commit) model.Commit {
	lines := strings.Split(c.Message, "\n")
	subject := lines[0]
	bodyLines := 0
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) != "" {
			bodyLines++
		}
	}
	return model.NewCommit(c.Hash.String(), subject, bodyLines, c.Author.Name, c.Author.Email, c.Author.When)
}
