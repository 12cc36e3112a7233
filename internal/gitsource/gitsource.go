// Package gitsource keeps local checkouts of git hosted decks.
package gitsource

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/conorfennell/knolreview/internal/logger"
)

// IsURL reports whether source looks like a git remote rather than a
// local directory.
func IsURL(source string) bool {
	if strings.HasSuffix(source, ".git") {
		return true
	}
	if strings.HasPrefix(source, "git@") {
		return true
	}
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "https" || u.Scheme == "http" || u.Scheme == "ssh")
}

// LocalPath maps a remote URL to a checkout directory under baseDir, e.g.
// https://github.com/a/b.git -> baseDir/github.com/a/b.
func LocalPath(baseDir, repoURL string) (string, error) {
	u, err := url.Parse(repoURL)
	if err == nil && u.Host != "" && (u.Scheme == "https" || u.Scheme == "http" || u.Scheme == "ssh") {
		return filepath.Join(baseDir, u.Host, strings.TrimSuffix(u.Path, ".git")), nil
	}

	// scp-like syntax: git@host:owner/repo.git
	user, rest, ok := strings.Cut(repoURL, "@")
	if ok && user != "" {
		host, path, ok := strings.Cut(rest, ":")
		if ok && host != "" && path != "" {
			return filepath.Join(baseDir, host, strings.TrimSuffix(path, ".git")), nil
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}

// Sync clones url into localPath, or pulls when a checkout already exists.
func Sync(ctx context.Context, log *logger.Logger, url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		log.Info("cloning repository", "url", url, "path", localPath)
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(localPath), err)
		}
		if _, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{URL: url}); err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	log.Info("pulling repository", "path", localPath)
	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
	}
	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
	}
	return nil
}
