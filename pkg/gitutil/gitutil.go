package gitutil

import "strings"

// IsAuthError checks if an error message indicates an authentication issue
// pkg/gitdriver uses this to detect git commands that fail due to missing or invalid credentials
func IsAuthError(errMsg string) bool {
	lowerMsg := strings.ToLower(errMsg)
	return strings.Contains(lowerMsg, "gh_token") ||
		strings.Contains(lowerMsg, "github_token") ||
		strings.Contains(lowerMsg, "authentication") ||
		strings.Contains(lowerMsg, "not logged into") ||
		strings.Contains(lowerMsg, "unauthorized") ||
		strings.Contains(lowerMsg, "forbidden") ||
		strings.Contains(lowerMsg, "permission denied")
}

// IsHexString checks if a string contains only hexadecimal characters
// This is used to validate Git commit SHAs and other hexadecimal identifiers
func IsHexString(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// IsValidCommitSHA reports whether s looks like a git commit SHA: a
// hex string of either abbreviated (7+) or full (40) length. pkg/action's
// git.extract uses this to sanity-check the SHA gitdriver.ParentSHA returns
// before using it in a subsequent `git show <sha>:<path>` invocation.
func IsValidCommitSHA(s string) bool {
	return len(s) >= 7 && len(s) <= 40 && IsHexString(s)
}
