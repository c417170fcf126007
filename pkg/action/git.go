package action

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AWeber-Imbi/imbi-automations/pkg/gitdriver"
	"github.com/AWeber-Imbi/imbi-automations/pkg/gitutil"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
)

// executeGit implements git.extract: search commit history for a keyword,
// pick a candidate commit per the configured search strategy, and write
// the file's content as of that commit into the extracted directory.
func executeGit(ctx context.Context, wfCtx *model.WorkflowContext, a model.Action) error {
	if a.Command != model.GitCommandExtract {
		return fmt.Errorf("action %q: unsupported git command %q", a.Name, a.Command)
	}

	driver := gitdriver.New(wfCtx.RepositoryDir())
	shas, err := driver.GrepCommits(ctx, a.CommitKeyword)
	if err != nil {
		if a.IgnoreErrors {
			log.Printf("git extraction search failed (ignored): %v", err)
			return nil
		}
		return fmt.Errorf("action %q: git extraction failed: %w", a.Name, err)
	}
	if len(shas) == 0 {
		if a.IgnoreErrors {
			log.Printf("no commits matched %q for %q (ignored)", a.CommitKeyword, a.Name)
			return nil
		}
		return fmt.Errorf("action %q: git extraction failed for %s: no commit matched %q", a.Name, a.Source, a.CommitKeyword)
	}

	// shas is newest-first. before_last_match uses the oldest match's
	// parent; before_first_match uses the newest match's parent.
	var target string
	switch a.EffectiveSearchStrategy() {
	case model.SearchBeforeFirstMatch:
		target = shas[0]
	case model.SearchBeforeLastMatch:
		target = shas[len(shas)-1]
	default:
		return fmt.Errorf("action %q: unknown search_strategy %q", a.Name, a.SearchStrategy)
	}

	parent, err := driver.ParentSHA(ctx, target)
	if err != nil {
		if a.IgnoreErrors {
			log.Printf("resolving parent of %s failed (ignored): %v", target, err)
			return nil
		}
		return fmt.Errorf("action %q: git extraction failed: %w", a.Name, err)
	}
	if !gitutil.IsValidCommitSHA(parent) {
		return fmt.Errorf("action %q: git extraction failed: %q is not a commit SHA", a.Name, parent)
	}

	content, err := driver.ShowFileAtCommit(ctx, parent, a.Source)
	if err != nil {
		if a.IgnoreErrors {
			log.Printf("git extraction failed for %s (ignored): %v", a.Source, err)
			return nil
		}
		return fmt.Errorf("action %q: git extraction failed for %s: %w", a.Name, a.Source, err)
	}

	destPath := filepath.Join(wfCtx.ExtractedDir(), a.Destination)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("action %q: mkdir %s: %w", a.Name, filepath.Dir(destPath), err)
	}
	if err := os.WriteFile(destPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("action %q: write %s: %w", a.Name, destPath, err)
	}
	log.Printf("extracted %s@%s to %s", a.Source, parent, destPath)
	return nil
}
