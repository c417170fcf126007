package action

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
)

// resolvePath resolves a possibly-relative action path against the
// workflow's working directory, matching file_actions.py's _resolve_path.
func resolvePath(wfCtx *model.WorkflowContext, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(wfCtx.WorkingDirectory, path)
}

func executeFile(wfCtx *model.WorkflowContext, a model.Action) error {
	switch a.Command {
	case model.FileCommandAppend:
		return fileAppend(wfCtx, a)
	case model.FileCommandWrite:
		return fileWrite(wfCtx, a)
	case model.FileCommandCopy:
		return fileCopy(wfCtx, a)
	case model.FileCommandMove:
		return fileMove(wfCtx, a)
	case model.FileCommandRename:
		return fileRename(wfCtx, a)
	case model.FileCommandDelete:
		return fileDelete(wfCtx, a)
	default:
		return fmt.Errorf("action %q: unsupported file command %q", a.Name, a.Command)
	}
}

func fileAppend(wfCtx *model.WorkflowContext, a model.Action) error {
	path := resolvePath(wfCtx, a.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("action %q: mkdir %s: %w", a.Name, filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("action %q: open %s: %w", a.Name, path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(a.Content); err != nil {
		return fmt.Errorf("action %q: append %s: %w", a.Name, path, err)
	}
	log.Printf("appended to %s", path)
	return nil
}

func fileWrite(wfCtx *model.WorkflowContext, a model.Action) error {
	path := resolvePath(wfCtx, a.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("action %q: mkdir %s: %w", a.Name, filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
		return fmt.Errorf("action %q: write %s: %w", a.Name, path, err)
	}
	log.Printf("wrote %s", path)
	return nil
}

func fileCopy(wfCtx *model.WorkflowContext, a model.Action) error {
	src := resolvePath(wfCtx, a.Source)
	dest := resolvePath(wfCtx, a.Destination)

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("action %q: source does not exist: %w", a.Name, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("action %q: mkdir %s: %w", a.Name, filepath.Dir(dest), err)
	}

	if info.IsDir() {
		if err := copyTree(src, dest); err != nil {
			return fmt.Errorf("action %q: copy %s to %s: %w", a.Name, src, dest, err)
		}
	} else {
		if err := copyFile(src, dest); err != nil {
			return fmt.Errorf("action %q: copy %s to %s: %w", a.Name, src, dest, err)
		}
	}
	log.Printf("copied %s to %s", src, dest)
	return nil
}

func fileMove(wfCtx *model.WorkflowContext, a model.Action) error {
	src := resolvePath(wfCtx, a.Source)
	dest := resolvePath(wfCtx, a.Destination)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("action %q: source does not exist: %w", a.Name, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("action %q: mkdir %s: %w", a.Name, filepath.Dir(dest), err)
	}
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("action %q: move %s to %s: %w", a.Name, src, dest, err)
	}
	log.Printf("moved %s to %s", src, dest)
	return nil
}

func fileRename(wfCtx *model.WorkflowContext, a model.Action) error {
	return fileMove(wfCtx, a)
}

func fileDelete(wfCtx *model.WorkflowContext, a model.Action) error {
	base := wfCtx.WorkingDirectory

	if a.Path != "" {
		path := resolvePath(wfCtx, a.Path)
		if _, err := os.Stat(path); err != nil {
			log.Printf("file to delete does not exist: %s", path)
			return nil
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("action %q: delete %s: %w", a.Name, path, err)
		}
		log.Printf("deleted %s", path)
		return nil
	}

	pattern, err := regexp.Compile(a.Pattern)
	if err != nil {
		return fmt.Errorf("action %q: invalid delete pattern %q: %w", a.Name, a.Pattern, err)
	}
	deleted := 0
	err = filepath.Walk(base, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		if pattern.MatchString(rel) {
			if err := os.Remove(path); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("action %q: delete pattern %q: %w", a.Name, a.Pattern, err)
	}
	log.Printf("deleted %d files matching %q", deleted, a.Pattern)
	return nil
}
