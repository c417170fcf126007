// Package template implements the template action (C5): rendering
// Go templates against a workflow's context data, in file or directory
// mode, with strict undefined-key behavior mirroring the original's
// jinja2.StrictUndefined contract.
//
// text/template is used directly rather than a third-party templating
// library: none of the pack's dependencies provide a Jinja-compatible
// engine, and Go's stdlib template package already gives the strict
// "error on missing key" behavior the original relies on via
// Option("missingkey=error"), so no ecosystem substitute was needed.
package template

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
)

var log = logger.ForComponent("template")

var fromRe = regexp.MustCompile(`(?i)^\s*FROM\s+(\S+)`)

// ExtractImageFromDockerfile returns the image reference named by the
// last FROM line in a Dockerfile, mirroring a multi-stage build's final
// stage. It is exposed to templates as the "extractImageFromDockerfile"
// function.
func ExtractImageFromDockerfile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("template: extractImageFromDockerfile: %w", err)
	}
	defer f.Close()

	var image string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := fromRe.FindStringSubmatch(scanner.Text()); m != nil {
			image = m[1]
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("template: extractImageFromDockerfile: %w", err)
	}
	if image == "" {
		return "", fmt.Errorf("template: extractImageFromDockerfile: no FROM line found in %s", path)
	}
	// Strip an "AS stage" alias, if present, leaving just image:tag.
	if idx := strings.Index(strings.ToLower(image), " as "); idx >= 0 {
		image = image[:idx]
	}
	return image, nil
}

// funcMap returns the template function set available to every render,
// bound to the Dockerfile-extraction helper above.
func funcMap() template.FuncMap {
	return template.FuncMap{
		"extractImageFromDockerfile": ExtractImageFromDockerfile,
	}
}

// newEnv builds a strict, non-autoescaping template environment: missing
// keys in the data map are a render error rather than silently empty,
// matching the original's StrictUndefined contract.
func newEnv(name string) *template.Template {
	return template.New(name).Option("missingkey=error").Funcs(funcMap())
}

// RenderString renders a single template body against data.
func RenderString(name, body string, data any) (string, error) {
	tmpl, err := newEnv(name).Parse(body)
	if err != nil {
		return "", fmt.Errorf("template: parse %s: %w", name, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("template: render %s: %w", name, err)
	}
	return sb.String(), nil
}

// RenderFile renders sourcePath as a template and writes the result to
// destPath, creating destPath's parent directory as needed.
func RenderFile(sourcePath, destPath string, data any) error {
	body, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("template: read %s: %w", sourcePath, err)
	}
	rendered, err := RenderString(sourcePath, string(body), data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("template: mkdir %s: %w", filepath.Dir(destPath), err)
	}
	if err := os.WriteFile(destPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("template: write %s: %w", destPath, err)
	}
	log.Printf("rendered %s to %s", sourcePath, destPath)
	return nil
}

// RenderTree renders every file under sourceDir into destDir, preserving
// the relative directory structure, for the directory-mode template action.
func RenderTree(sourceDir, destDir string, data any) (int, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return 0, fmt.Errorf("template: source path does not exist: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("template: %s is not a directory", sourceDir)
	}

	count := 0
	err = filepath.Walk(sourceDir, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if err := RenderFile(path, filepath.Join(destDir, rel), data); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	log.Printf("rendered %d templates from %s to %s", count, sourceDir, destDir)
	return count, nil
}

// Render dispatches on whether sourcePath is a file or directory, covering
// both modes of the template action in one call.
func Render(sourcePath, destPath string, data any) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("template: source path does not exist: %w", err)
	}
	switch {
	case info.Mode().IsRegular():
		return RenderFile(sourcePath, destPath, data)
	case info.IsDir():
		_, err := RenderTree(sourcePath, destPath, data)
		return err
	default:
		return fmt.Errorf("template: %s is neither file nor directory", sourcePath)
	}
}
