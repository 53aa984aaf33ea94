package search

import (
	"context"
	"sync"

	"easyhomes/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Phase is the lifecycle stage of a View.
type Phase int

const (
	Loading Phase = iota
	Ready
)

func (p Phase) String() string {
	if p == Ready {
		return "ready"
	}
	return "loading"
}

// Messages shown when a fetch fails. The cause is logged, never displayed.
const (
	HomesLoadFailed   = "Failed to load homes"
	CommitsLoadFailed = "Failed to load commits"
)

// Fetcher is satisfied by *client.Client.
type Fetcher interface {
	FetchHomes(ctx context.Context) ([]models.Home, error)
	FetchCommits(ctx context.Context) ([]models.Commit, error)
}

// View holds the fetched listings and commits plus the current criteria.
// It is safe for concurrent use.
type View struct {
	fetcher Fetcher
	log     *zap.Logger

	mu         sync.RWMutex
	phase      Phase
	homes      []models.Home
	commits    []models.Commit
	facets     Facets
	criteria   Criteria
	results    []models.Home
	homesErr   string
	commitsErr string
}

// NewView returns a View in the loading phase.
func NewView(fetcher Fetcher, log *zap.Logger) *View {
	if log == nil {
		log = zap.NewNop()
	}
	return &View{
		fetcher: fetcher,
		log:     log,
		homes:   []models.Home{},
		commits: []models.Commit{},
		facets:  BuildFacets(nil),
		results: []models.Home{},
	}
}

// Load fetches listings and commits concurrently and moves to Ready once both
// have finished. A failure in one fetch leaves the other's data in place.
func (v *View) Load(ctx context.Context) {
	v.mu.Lock()
	v.phase = Loading
	v.mu.Unlock()

	var (
		g          errgroup.Group
		homes      []models.Home
		commits    []models.Commit
		homesErr   string
		commitsErr string
	)
	g.Go(func() error {
		h, err := v.fetcher.FetchHomes(ctx)
		if err != nil {
			v.log.Warn("failed to fetch homes", zap.Error(err))
			homesErr = HomesLoadFailed
			return nil
		}
		homes = h
		return nil
	})
	g.Go(func() error {
		c, err := v.fetcher.FetchCommits(ctx)
		if err != nil {
			v.log.Warn("failed to fetch commits", zap.Error(err))
			commitsErr = CommitsLoadFailed
			return nil
		}
		commits = c
		return nil
	})
	// both goroutines swallow their errors
	_ = g.Wait()

	if homes == nil {
		homes = []models.Home{}
	}
	if commits == nil {
		commits = []models.Commit{}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.homes = homes
	v.commits = commits
	v.homesErr = homesErr
	v.commitsErr = commitsErr
	v.facets = BuildFacets(homes)
	v.results = Filter(v.homes, v.criteria)
	v.phase = Ready
}

// SetCriteria replaces the criteria and returns the recomputed results.
func (v *View) SetCriteria(c Criteria) []models.Home {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.criteria = c
	v.results = Filter(v.homes, c)
	return v.results
}

func (v *View) Phase() Phase {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.phase
}

func (v *View) Criteria() Criteria {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.criteria
}

// Results returns the listings matching the current criteria.
func (v *View) Results() []models.Home {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.results
}

func (v *View) Homes() []models.Home {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.homes
}

func (v *View) Commits() []models.Commit {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.commits
}

func (v *View) Facets() Facets {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.facets
}

// Errors returns the user-facing message of each failed fetch, or "".
func (v *View) Errors() (homes, commits string) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.homesErr, v.commitsErr
}
