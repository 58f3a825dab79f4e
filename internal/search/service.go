package search

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"portfolio/api/internal/portfolio"
)

// Index is a search backend that can be kept in sync with the document.
type Index interface {
	Healthy() bool
	Search(q Query) ([]Result, int, error)
	IndexProjects(records []ProjectRecord) error
	DeleteProjects(ids []string) error
}

// Service is the facade that tries Meilisearch first and falls back to
// matching in memory against the current document.
type Service struct {
	index  Index
	logger *zap.Logger

	pending chan []ProjectRecord
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	indexed map[string]struct{}
}

// NewService creates a search service. index may be nil if Meilisearch is not configured.
func NewService(index Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		index:   index,
		logger:  logger.With(zap.String("component", "search")),
		pending: make(chan []ProjectRecord, 1),
		done:    make(chan struct{}),
		indexed: make(map[string]struct{}),
	}
	if index != nil {
		s.wg.Add(1)
		go s.indexLoop()
	}
	return s
}

// Search runs q against the index when healthy, otherwise against projects.
// Index hits for projects no longer in the document are dropped so a lagging
// index never surfaces deleted content. A blank query matches nothing on
// either backend.
func (s *Service) Search(projects []portfolio.Project, q Query) Response {
	if strings.TrimSpace(q.Text) == "" {
		return Response{Results: []Result{}, Query: q.Text, Backend: s.backend()}
	}
	records := Records(projects)
	if s.index != nil && s.index.Healthy() {
		results, total, err := s.index.Search(q)
		if err == nil {
			current := make(map[string]struct{}, len(records))
			for _, rec := range records {
				current[rec.ID] = struct{}{}
			}
			filtered := make([]Result, 0, len(results))
			for _, r := range results {
				if _, ok := current[r.ID]; ok {
					filtered = append(filtered, r)
				}
			}
			if dropped := len(results) - len(filtered); dropped > 0 {
				total -= dropped
			}
			return Response{Results: filtered, Total: total, Query: q.Text, Backend: "meilisearch"}
		}
		s.logger.Warn("meilisearch error, falling back to memory", zap.Error(err))
	}

	results, total := MatchProjects(records, q)
	return Response{Results: results, Total: total, Query: q.Text, Backend: "memory"}
}

func (s *Service) backend() string {
	if s.index != nil && s.index.Healthy() {
		return "meilisearch"
	}
	return "memory"
}

// Reindex schedules the index to be brought in line with projects. Only the
// latest pending snapshot is kept; it never blocks the caller.
func (s *Service) Reindex(projects []portfolio.Project) {
	if s.index == nil {
		return
	}
	records := Records(projects)
	for {
		select {
		case s.pending <- records:
			return
		default:
		}
		select {
		case <-s.pending:
		default:
		}
	}
}

// Close stops the indexing worker after it finishes the current batch.
func (s *Service) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.wg.Wait()
}

func (s *Service) indexLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case records := <-s.pending:
			s.sync(records)
		}
	}
}

func (s *Service) sync(records []ProjectRecord) {
	if !s.index.Healthy() {
		s.logger.Debug("skipping reindex, index unhealthy")
		return
	}

	current := make(map[string]struct{}, len(records))
	for _, rec := range records {
		current[rec.ID] = struct{}{}
	}

	s.mu.Lock()
	var stale []string
	for id := range s.indexed {
		if _, ok := current[id]; !ok {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	if len(stale) > 0 {
		if err := s.index.DeleteProjects(stale); err != nil {
			s.logger.Warn("delete stale projects", zap.Strings("ids", stale), zap.Error(err))
			return
		}
	}

	// Ids stay tracked until a delete succeeds, so a failed or partial add
	// is still cleaned up by a later sync.
	s.mu.Lock()
	for _, id := range stale {
		delete(s.indexed, id)
	}
	for id := range current {
		s.indexed[id] = struct{}{}
	}
	s.mu.Unlock()

	if err := s.index.IndexProjects(records); err != nil {
		s.logger.Warn("index projects", zap.Int("count", len(records)), zap.Error(err))
		return
	}
	s.logger.Debug("projects reindexed", zap.Int("count", len(records)), zap.Int("removed", len(stale)))
}

// Records converts document projects into index records.
func Records(projects []portfolio.Project) []ProjectRecord {
	records := make([]ProjectRecord, 0, len(projects))
	for _, p := range projects {
		records = append(records, ProjectRecord{
			ID:           p.ID,
			Title:        p.Title,
			Description:  p.Description,
			Technologies: p.Technologies,
			Featured:     p.Featured,
		})
	}
	return records
}
