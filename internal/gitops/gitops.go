// Package gitops versions a ledger data directory with git, so config,
// chart of accounts, activity log and journal exports have history.
package gitops

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNothingToCommit is returned by Commit when the working tree is clean.
var ErrNothingToCommit = errors.New("nothing to commit")

// Author identifies who snapshots are committed as.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Repo is a data directory under git.
type Repo struct {
	dir    string
	author Author
}

// Open returns the repo at dir. It fails when dir is not a git working tree.
func Open(dir string, author Author) (*Repo, error) {
	if !IsRepo(dir) {
		return nil, fmt.Errorf("%s is not a git repository", dir)
	}
	return &Repo{dir: dir, author: author}, nil
}

// Init creates a new git repository at dir.
func Init(dir string, author Author) (*Repo, error) {
	if _, err := run(dir, "init", "--quiet"); err != nil {
		return nil, err
	}
	return &Repo{dir: dir, author: author}, nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Commit stages every change in the directory and commits it. Returns the
// short hash, or ErrNothingToCommit when there were no changes.
func (r *Repo) Commit(message string) (string, error) {
	if _, err := run(r.dir, "add", "-A"); err != nil {
		return "", err
	}
	status, err := run(r.dir, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	if status == "" {
		return "", ErrNothingToCommit
	}

	// Identity comes from flags so commits work without a global git config.
	if _, err := run(r.dir,
		"-c", "user.name="+r.author.Name,
		"-c", "user.email="+r.author.Email,
		"commit", "--quiet", "-m", message, "--author", r.author.String(),
	); err != nil {
		return "", err
	}
	return run(r.dir, "rev-parse", "--short", "HEAD")
}

// LastMessage returns the subject of the latest commit.
func (r *Repo) LastMessage() (string, error) {
	return run(r.dir, "log", "-1", "--format=%s")
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		sub := args
		for len(sub) > 2 && sub[0] == "-c" {
			sub = sub[2:]
		}
		return "", fmt.Errorf("git %s: %s: %w", sub[0], strings.TrimSpace(stderr.String()), err)
	}
	return strings.TrimSpace(out.String()), nil
}
