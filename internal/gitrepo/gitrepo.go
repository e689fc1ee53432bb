// Package gitrepo manages the checkout of externally maintained report
// script repositories, currently ubuntu-archive-tools.
package gitrepo

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/canonical/static-reports-operator/internal/log"
)

// Repository represents one managed checkout: a remote URL, a branch, and
// the local target directory.
type Repository struct {
	URL       string
	Reference string
	Path      string

	logger log.Logger
	proxy  transport.ProxyOptions
	repo   *git.Repository
}

// NewRepository creates a new Repository. proxyURL may be empty; when set
// it is used for clone and pull transport.
func NewRepository(url, reference, path, proxyURL string, logger log.Logger) *Repository {
	return &Repository{
		URL:       url,
		Reference: reference,
		Path:      path,
		logger:    logger,
		proxy:     transport.ProxyOptions{URL: proxyURL},
	}
}

// Sync clones the remote repository to the local path if it doesn't exist,
// or opens the existing checkout and pulls the latest changes.
func (r *Repository) Sync() error {
	r.logger.Info("Syncing repository", "path", r.Path, "url", r.URL)

	repo, err := git.PlainClone(r.Path, false, &git.CloneOptions{
		URL:           r.URL,
		ReferenceName: plumbing.NewBranchReferenceName(r.Reference),
		SingleBranch:  true,
		ProxyOptions:  r.proxy,
	})

	if err != nil {
		if err != git.ErrRepositoryAlreadyExists {
			return fmt.Errorf("cloning %s: %w", r.URL, err)
		}

		r.logger.Debug("Repository already exists, opening", "path", r.Path)

		repo, err = git.PlainOpen(r.Path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", r.Path, err)
		}

		r.repo = repo
		if err := r.pullLatest(); err != nil {
			return err
		}
		return nil
	}

	r.repo = repo
	return nil
}

// pullLatest pulls the latest changes from origin. An already up to date
// checkout is not an error.
func (r *Repository) pullLatest() error {
	r.logger.Debug("Pulling latest changes from origin")

	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree for %s: %w", r.Path, err)
	}

	err = worktree.Pull(&git.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(r.Reference),
		ProxyOptions:  r.proxy,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("pulling %s: %w", r.URL, err)
	}
	if err == git.NoErrAlreadyUpToDate {
		r.logger.Debug("Repository is already up to date")
	}
	return nil
}
