package model

import "fmt"

// RemoteClient selects which remote client a remote condition is evaluated
// against.
type RemoteClient string

const (
	RemoteClientGitHub RemoteClient = "github"
	RemoteClientGitLab RemoteClient = "gitlab"
)

// Condition populates exactly one variant from each of two disjoint groups:
// local (evaluated against the clone on disk) and remote (evaluated against
// a registry client). Both groups may be empty; at most one field within
// each group may be set.
type Condition struct {
	// Local group.
	FileExists        string `toml:"file_exists"`
	FileNotExists     string `toml:"file_not_exists"`
	FileContains      string `toml:"file_contains"`
	FileDoesntContain string `toml:"file_doesnt_contain"`
	File              string `toml:"file"`

	// Remote group.
	RemoteFileExists        string       `toml:"remote_file_exists"`
	RemoteFileNotExists     string       `toml:"remote_file_not_exists"`
	RemoteFileContains      string       `toml:"remote_file_contains"`
	RemoteFileDoesntContain string       `toml:"remote_file_doesnt_contain"`
	RemoteFile              string       `toml:"remote_file"`
	RemoteClient            RemoteClient `toml:"remote_client"`
}

// localFields enumerates the local exclusive group in set order.
func (c Condition) localFields() []string {
	var set []string
	if c.FileExists != "" {
		set = append(set, "file_exists")
	}
	if c.FileNotExists != "" {
		set = append(set, "file_not_exists")
	}
	if c.FileContains != "" {
		set = append(set, "file_contains")
	}
	if c.FileDoesntContain != "" {
		set = append(set, "file_doesnt_contain")
	}
	return set
}

func (c Condition) remoteFields() []string {
	var set []string
	if c.RemoteFileExists != "" {
		set = append(set, "remote_file_exists")
	}
	if c.RemoteFileNotExists != "" {
		set = append(set, "remote_file_not_exists")
	}
	if c.RemoteFileContains != "" {
		set = append(set, "remote_file_contains")
	}
	if c.RemoteFileDoesntContain != "" {
		set = append(set, "remote_file_doesnt_contain")
	}
	return set
}

// IsLocal reports whether this condition populates the local group.
func (c Condition) IsLocal() bool { return len(c.localFields()) > 0 }

// IsRemote reports whether this condition populates the remote group.
func (c Condition) IsRemote() bool { return len(c.remoteFields()) > 0 }

// Validate enforces the exclusive-group invariant: at most one populated
// field per group, and file_contains/file_doesnt_contain require a paired
// `file`.
func (c Condition) Validate() error {
	local := c.localFields()
	remote := c.remoteFields()
	if len(local) > 1 {
		return fmt.Errorf("condition: more than one local predicate set: %v", local)
	}
	if len(remote) > 1 {
		return fmt.Errorf("condition: more than one remote predicate set: %v", remote)
	}
	if (c.FileContains != "" || c.FileDoesntContain != "") && c.File == "" {
		return fmt.Errorf("condition: file_contains/file_doesnt_contain requires a paired file")
	}
	if (c.RemoteFileContains != "" || c.RemoteFileDoesntContain != "") && c.RemoteFile == "" {
		return fmt.Errorf("condition: remote_file_contains/remote_file_doesnt_contain requires a paired remote_file")
	}
	if len(remote) > 0 && c.RemoteClient == "" {
		return fmt.Errorf("condition: remote predicate requires remote_client")
	}
	if c.RemoteClient != "" && c.RemoteClient != RemoteClientGitHub && c.RemoteClient != RemoteClientGitLab {
		return fmt.Errorf("condition: unknown remote_client %q", c.RemoteClient)
	}
	return nil
}
