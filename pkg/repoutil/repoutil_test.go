package repoutil

import "testing"

func TestSplitRepoSlug(t *testing.T) {
	tests := []struct {
		name          string
		slug          string
		expectedOwner string
		expectedRepo  string
		expectError   bool
	}{
		{
			name:          "valid slug",
			slug:          "acme/widget",
			expectedOwner: "acme",
			expectedRepo:  "widget",
			expectError:   false,
		},
		{
			name:          "another valid slug",
			slug:          "octocat/hello-world",
			expectedOwner: "octocat",
			expectedRepo:  "hello-world",
			expectError:   false,
		},
		{
			name:        "invalid slug - no separator",
			slug:        "acme",
			expectError: true,
		},
		{
			name:        "invalid slug - multiple separators",
			slug:        "acme/widget/extra",
			expectError: true,
		},
		{
			name:        "invalid slug - empty",
			slug:        "",
			expectError: true,
		},
		{
			name:        "invalid slug - only separator",
			slug:        "/",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := SplitRepoSlug(tt.slug)
			if tt.expectError {
				if err == nil {
					t.Errorf("SplitRepoSlug(%q) expected error, got nil", tt.slug)
				}
				return
			}
			if err != nil {
				t.Errorf("SplitRepoSlug(%q) unexpected error: %v", tt.slug, err)
			}
			if owner != tt.expectedOwner {
				t.Errorf("SplitRepoSlug(%q) owner = %q; want %q", tt.slug, owner, tt.expectedOwner)
			}
			if repo != tt.expectedRepo {
				t.Errorf("SplitRepoSlug(%q) repo = %q; want %q", tt.slug, repo, tt.expectedRepo)
			}
		})
	}
}

func TestParseGitHubRepoURL(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		expectedOwner string
		expectedRepo  string
		expectError   bool
	}{
		{"SSH format with .git", "git@github.com:acme/widget.git", "acme", "widget", false},
		{"SSH format without .git", "git@github.com:octocat/hello-world", "octocat", "hello-world", false},
		{"HTTPS format with .git", "https://github.com/acme/widget.git", "acme", "widget", false},
		{"HTTPS format without .git", "https://github.com/octocat/hello-world", "octocat", "hello-world", false},
		{"non-GitHub URL", "https://gitlab.com/user/repo.git", "", "", true},
		{"invalid URL", "not-a-url", "", "", true},
		{"empty URL", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseGitHubRepoURL(tt.url)
			if tt.expectError {
				if err == nil {
					t.Errorf("ParseGitHubRepoURL(%q) expected error, got nil", tt.url)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseGitHubRepoURL(%q) unexpected error: %v", tt.url, err)
			}
			if owner != tt.expectedOwner || repo != tt.expectedRepo {
				t.Errorf("ParseGitHubRepoURL(%q) = %q/%q; want %q/%q", tt.url, owner, repo, tt.expectedOwner, tt.expectedRepo)
			}
		})
	}
}

func TestParseGitLabRepoURL(t *testing.T) {
	owner, repo, err := ParseGitLabRepoURL("https://gitlab.com/acme/widget.git")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner != "acme" || repo != "widget" {
		t.Fatalf("got %q/%q, want acme/widget", owner, repo)
	}

	if _, _, err := ParseGitLabRepoURL("https://github.com/acme/widget.git"); err == nil {
		t.Fatalf("expected error for non-GitLab URL")
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		name     string
		slug     string
		expected string
	}{
		{"normal slug", "acme/widget", "acme-widget"},
		{"empty slug", "", "workspace"},
		{"slug with multiple slashes", "owner/repo/extra", "owner-repo-extra"},
		{"slug with hyphen", "owner/my-repo", "owner-my-repo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeForFilename(tt.slug)
			if result != tt.expected {
				t.Errorf("SanitizeForFilename(%q) = %q; want %q", tt.slug, result, tt.expected)
			}
		})
	}
}

func BenchmarkSplitRepoSlug(b *testing.B) {
	slug := "acme/widget"
	for i := 0; i < b.N; i++ {
		_, _, _ = SplitRepoSlug(slug)
	}
}

func BenchmarkParseGitHubRepoURL(b *testing.B) {
	url := "https://github.com/acme/widget.git"
	for i := 0; i < b.N; i++ {
		_, _, _ = ParseGitHubRepoURL(url)
	}
}

func BenchmarkSanitizeForFilename(b *testing.B) {
	slug := "acme/widget"
	for i := 0; i < b.N; i++ {
		_ = SanitizeForFilename(slug)
	}
}
