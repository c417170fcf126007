// Package condition evaluates workflow action/step conditions (C6): the
// local file-based group (file_exists, file_not_exists, file_contains,
// file_doesnt_contain) and the remote group backed by a registry client
// (remote_file_exists, remote_file_not_exists, remote_file_contains,
// remote_file_doesnt_contain).
package condition

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
)

var log = logger.ForComponent("condition")

// RemoteFileFetcher fetches file content from a remote repository,
// returning (nil, nil) when the file does not exist. The GitHub/GitLab
// registry clients are adapted to this interface by pkg/engine's
// NewGitHubFileFetcher/NewGitLabFileFetcher.
type RemoteFileFetcher interface {
	GetFileContents(ctx context.Context, owner, repo, path string) ([]byte, error)
}

// Checker evaluates condition lists against a repository checkout and,
// for the remote group, against configured registry clients.
type Checker struct {
	GitHub RemoteFileFetcher
	GitLab RemoteFileFetcher
}

// New returns a Checker. Either client may be nil when not configured;
// evaluating a remote condition against a nil client is an error.
func New(github, gitlab RemoteFileFetcher) *Checker {
	return &Checker{GitHub: github, GitLab: gitlab}
}

// CheckLocal evaluates the local (file-based) condition group against
// repoDir; conditions with no local field set are ignored. An empty (or
// entirely remote) condition list is vacuously true, for both
// model.ConditionAll and model.ConditionAny.
func (c *Checker) CheckLocal(conditionType model.ConditionType, conditions []model.Condition, repoDir string) (bool, error) {
	results := make([]bool, 0, len(conditions))
	for _, cond := range conditions {
		if !cond.IsLocal() {
			continue
		}
		ok, err := c.checkLocalOne(repoDir, cond)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}
	if len(results) == 0 {
		return true, nil
	}
	return combine(conditionType, results), nil
}

func (c *Checker) checkLocalOne(repoDir string, cond model.Condition) (bool, error) {
	switch {
	case cond.FileContains != "" && cond.File != "":
		return fileContains(repoDir, cond.File, cond.FileContains)
	case cond.FileDoesntContain != "" && cond.File != "":
		contains, err := fileContains(repoDir, cond.File, cond.FileDoesntContain)
		return !contains, err
	case cond.FileExists != "":
		return filePatternExists(repoDir, cond.FileExists)
	case cond.FileNotExists != "":
		exists, err := filePatternExists(repoDir, cond.FileNotExists)
		return !exists, err
	default:
		return false, fmt.Errorf("condition: no recognized local condition fields set")
	}
}

func fileContains(repoDir, relPath, substr string) (bool, error) {
	path := filepath.Join(repoDir, relPath)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("%s does not exist for contains check", relPath)
			return false, nil
		}
		log.Printf("failed to read %s for contains check: %v", relPath, err)
		return false, nil
	}
	return strings.Contains(string(content), substr), nil
}

// filePatternExists checks whether file exists as an exact relative path;
// failing that, it compiles file as a regular expression and reports
// whether any path under repoDir (file or directory) matches it. A file
// value that is not a valid regular expression is an error.
func filePatternExists(repoDir, file string) (bool, error) {
	exact := filepath.Join(repoDir, file)
	if _, err := os.Stat(exact); err == nil {
		return true, nil
	}

	pattern, err := regexp.Compile(file)
	if err != nil {
		return false, fmt.Errorf("condition: invalid regex pattern %q: %w", file, err)
	}

	found := false
	err = filepath.Walk(repoDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if found {
			return nil
		}
		rel, err := filepath.Rel(repoDir, path)
		if err != nil {
			return err
		}
		if pattern.MatchString(rel) {
			found = true
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("condition: walk %s: %w", repoDir, err)
	}
	return found, nil
}

// CheckRemote evaluates the remote condition group, fetching file content
// from the GitHub or GitLab client named by each condition's RemoteClient;
// conditions with no remote field set are ignored. An empty (or entirely
// local) condition list is vacuously true.
func (c *Checker) CheckRemote(ctx context.Context, conditionType model.ConditionType, conditions []model.Condition, owner, repo string) (bool, error) {
	results := make([]bool, 0, len(conditions))
	for _, cond := range conditions {
		if !cond.IsRemote() {
			continue
		}
		ok, err := c.checkRemoteOne(ctx, owner, repo, cond)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}
	if len(results) == 0 {
		return true, nil
	}
	return combine(conditionType, results), nil
}

func (c *Checker) checkRemoteOne(ctx context.Context, owner, repo string, cond model.Condition) (bool, error) {
	client, err := c.remoteClient(cond.RemoteClient)
	if err != nil {
		return false, err
	}

	path := cond.RemoteFile
	if path == "" {
		path = cond.RemoteFileExists
	}
	if path == "" {
		path = cond.RemoteFileNotExists
	}

	content, err := client.GetFileContents(ctx, owner, repo, path)
	if err != nil {
		return false, fmt.Errorf("condition: fetch remote file %s: %w", path, err)
	}

	switch {
	case cond.RemoteFileContains != "":
		return content != nil && strings.Contains(string(content), cond.RemoteFileContains), nil
	case cond.RemoteFileDoesntContain != "":
		return content == nil || !strings.Contains(string(content), cond.RemoteFileDoesntContain), nil
	case cond.RemoteFileExists != "":
		return content != nil, nil
	case cond.RemoteFileNotExists != "":
		return content == nil, nil
	default:
		return false, fmt.Errorf("condition: no recognized remote condition fields set")
	}
}

func (c *Checker) remoteClient(clientType model.RemoteClient) (RemoteFileFetcher, error) {
	switch clientType {
	case model.RemoteClientGitHub:
		if c.GitHub == nil {
			return nil, fmt.Errorf("condition: remote condition targets github, but github is not configured")
		}
		return c.GitHub, nil
	case model.RemoteClientGitLab:
		if c.GitLab == nil {
			return nil, fmt.Errorf("condition: remote condition targets gitlab, but gitlab is not configured")
		}
		return c.GitLab, nil
	default:
		return nil, fmt.Errorf("condition: unsupported remote client %q", clientType)
	}
}

func combine(conditionType model.ConditionType, results []bool) bool {
	if conditionType == model.ConditionAny {
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	}
	for _, r := range results {
		if !r {
			return false
		}
	}
	return true
}
