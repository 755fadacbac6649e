// Package auditsrc is a non-core, CLI-only tool: it inspects the commit
// history of the scheduler's own policy configuration (kernel.Config,
// section 6's "single integer constant SCHEDULER") and lists tagged
// teaching-OS releases on GitHub. It is not part of the scheduling core —
// it never touches a proc.Table — and exists only so a student can see
// when and by whom the active policy was last changed, the same way
// arctir-proctor's source package inspects an arbitrary repository's
// history.
package auditsrc

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	// CacheDirName and CacheRepoDirName locate where a cloned-for-audit
	// repository is cached on disk, under $XDG_DATA_HOME.
	CacheDirName     = "schedcore"
	CacheRepoDirName = "audit-repos"
)

// Commit is a single entry in a config file's git history.
type Commit struct {
	Hash    string
	Date    time.Time
	Author  Person
	Subject string
}

// Person identifies a commit's author.
type Person struct {
	Name  string
	Email string
}

// ConfigHistory clones (or reuses a cached clone of) repoURL and returns
// every commit touching path, newest first — the "who last changed the
// scheduling policy, and when" query this package exists to answer.
func ConfigHistory(repoURL, path string) ([]Commit, error) {
	repo, err := resolveRepo(repoURL)
	if err != nil {
		return nil, fmt.Errorf("auditsrc: failed resolving repository %s: %w", repoURL, err)
	}
	return commitsTouching(repo, path)
}

// commitsTouching walks repo's log filtered to path (every commit if path
// is empty). Split out from ConfigHistory so it can be exercised directly
// against a locally created repository in tests, without a network clone.
func commitsTouching(repo *git.Repository, path string) ([]Commit, error) {
	logOpts := &git.LogOptions{Order: git.LogOrderCommitterTime}
	if path != "" {
		logOpts.PathFilter = func(p string) bool { return p == path }
	}
	iter, err := repo.Log(logOpts)
	if err != nil {
		return nil, fmt.Errorf("auditsrc: failed walking commit log: %w", err)
	}

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, Commit{
			Hash: c.Hash.String(),
			Date: c.Author.When,
			Author: Person{
				Name:  c.Author.Name,
				Email: c.Author.Email,
			},
			Subject: firstLine(c.Message),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("auditsrc: failed collecting commits: %w", err)
	}
	return commits, nil
}

func firstLine(msg string) string {
	for i, r := range msg {
		if r == '\n' {
			return msg[:i]
		}
	}
	return msg
}

// resolveRepo clones repoURL into the on-disk cache (reusing and fetching
// an existing clone if present), mirroring arctir-proctor's source.
// ResolveRepo but scoped to this package's single audit use case.
func resolveRepo(repoURL string) (*git.Repository, error) {
	fp := filepath.Join(cacheLocation(), encodedCacheName(repoURL))
	if _, err := os.Stat(fp); err == nil {
		ref, err := git.PlainOpen(fp)
		if err != nil {
			return nil, fmt.Errorf("failed opening cached audit clone: %w", err)
		}
		err = ref.Fetch(&git.FetchOptions{RemoteURL: repoURL})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return nil, fmt.Errorf("failed refreshing cached audit clone: %w", err)
		}
		return ref, nil
	}

	if err := ensureCacheDir(); err != nil {
		return nil, fmt.Errorf("failed ensuring audit cache directory: %w", err)
	}
	return git.PlainClone(fp, true, &git.CloneOptions{
		URL:        repoURL,
		NoCheckout: true,
	})
}

func ensureCacheDir() error {
	dir := cacheLocation()
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0o777)
		}
		return err
	}
	return nil
}

func cacheLocation() string {
	return filepath.Join(xdg.DataHome, CacheDirName, CacheRepoDirName)
}

func encodedCacheName(url string) string {
	return base64.StdEncoding.EncodeToString([]byte(url))
}
