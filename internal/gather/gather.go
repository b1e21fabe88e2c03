package gather

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"onboardify/internal/analyzer"
	"onboardify/internal/githubapi"
)

const (
	// DefaultConcurrency bounds outbound calls. Small on purpose: the remote
	// rate limiter matters more than throughput here.
	DefaultConcurrency = 4

	// maxKeyFiles caps how many allow-listed files get their content fetched.
	maxKeyFiles = 12
)

// Handle identifies the target repository. Immutable.
type Handle struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

func (h Handle) String() string { return h.Owner + "/" + h.Name }

// File is raw key-file content as fetched, before classification.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Snapshot aggregates everything gathered for one repository at one point in
// time. Read-only after Gather returns it.
type Snapshot struct {
	Handle        Handle                `json:"handle"`
	Metadata      githubapi.Repository  `json:"metadata"`
	Tree          []githubapi.TreeEntry `json:"tree"`
	Files         []File                `json:"files"`
	RecentCommits []githubapi.Commit    `json:"recent_commits"`
	GatheredAt    time.Time             `json:"gathered_at"`
}

// Gatherer fetches repository data over a bounded worker pool.
type Gatherer struct {
	gh          *githubapi.Client
	concurrency int
}

func New(gh *githubapi.Client, concurrency int) *Gatherer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Gatherer{gh: gh, concurrency: concurrency}
}

// Gather runs the metadata, tree, activity and key-file content calls
// concurrently. Only a metadata failure fails the gather; every other call
// degrades to missing data.
func (g *Gatherer) Gather(ctx context.Context, handle Handle, token string) (*Snapshot, error) {
	snap := &Snapshot{Handle: handle, GatheredAt: time.Now().UTC()}

	var (
		mu      sync.Mutex
		tree    []githubapi.TreeEntry
		commits []githubapi.Commit
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)

	eg.Go(func() error {
		meta, err := g.gh.GetRepository(egCtx, token, handle.Owner, handle.Name)
		if err != nil {
			return err
		}
		mu.Lock()
		snap.Metadata = *meta
		mu.Unlock()
		return nil
	})
	eg.Go(func() error {
		// HEAD resolves the default branch tip without waiting for metadata.
		t, err := g.gh.GetTree(egCtx, token, handle.Owner, handle.Name, "HEAD")
		if err != nil {
			log.Printf("gather: tree fetch for %s failed: %v", handle, err)
			return nil
		}
		mu.Lock()
		tree = t
		mu.Unlock()
		return nil
	})
	eg.Go(func() error {
		cs, err := g.gh.ListRecentCommits(egCtx, token, handle.Owner, handle.Name)
		if err != nil {
			log.Printf("gather: commit list for %s failed: %v", handle, err)
			return nil
		}
		mu.Lock()
		commits = cs
		mu.Unlock()
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	snap.Tree = tree
	snap.RecentCommits = commits

	files, err := g.fetchKeyFiles(ctx, handle, token, tree)
	if err != nil {
		return nil, err
	}
	snap.Files = files
	return snap, nil
}

// fetchKeyFiles pulls the content of allow-listed tree entries. Per-file
// failures are expected (not every repo has every well-known file) and are
// swallowed; the file is simply absent from the snapshot.
func (g *Gatherer) fetchKeyFiles(ctx context.Context, handle Handle, token string, tree []githubapi.TreeEntry) ([]File, error) {
	var wanted []string
	for _, e := range tree {
		if e.Kind != "file" {
			continue
		}
		if analyzer.IsKeyFile(e.Path) {
			wanted = append(wanted, e.Path)
		}
	}
	sort.Slice(wanted, func(i, j int) bool {
		// Shallow paths first so root manifests win the slot cap.
		di, dj := strings.Count(wanted[i], "/"), strings.Count(wanted[j], "/")
		if di != dj {
			return di < dj
		}
		return wanted[i] < wanted[j]
	})
	if len(wanted) > maxKeyFiles {
		wanted = wanted[:maxKeyFiles]
	}

	results := make([]File, len(wanted))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, p := range wanted {
		eg.Go(func() error {
			content, err := g.gh.GetFileContent(egCtx, token, handle.Owner, handle.Name, p)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				log.Printf("gather: content fetch for %s:%s skipped: %v", handle, p, err)
				return nil
			}
			results[i] = File{Path: p, Content: string(content)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	files := make([]File, 0, len(results))
	for _, f := range results {
		if f.Path != "" {
			files = append(files, f)
		}
	}
	return files, nil
}
