package githubapi

import "time"

// Repository is the metadata document for a hosted repository.
type Repository struct {
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	Language      string    `json:"language"`
	DefaultBranch string    `json:"default_branch"`
	Stars         int       `json:"stargazers_count"`
	Forks         int       `json:"forks_count"`
	OpenIssues    int       `json:"open_issues_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	PushedAt      time.Time `json:"pushed_at"`
}

// TreeEntry is one node of the repository file tree.
type TreeEntry struct {
	Path string `json:"path"`
	Kind string `json:"kind"` // "file" or "directory"
	Size int64  `json:"size"`
}

// Commit is the slim view of a commit returned by the list endpoint.
type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}
