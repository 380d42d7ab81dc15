package service

import (
	"context"
	"time"

	"github.com/passari/web-ui/internal/cache"
	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/queue"
	"github.com/passari/web-ui/internal/repository"
)

const (
	overviewStatsKey = "overview_stats"
	navbarStatsKey   = "navbar_stats"

	// StatsCacheTTL bounds how stale dashboard counts can be.
	StatsCacheTTL = 2 * time.Second
)

// StepCount is the number of objects in one workflow step.
type StepCount struct {
	Count int `json:"count"`
}

// OverviewStats are the counts shown on the overview page.
type OverviewStats struct {
	Steps      map[string]StepCount `json:"steps"`
	TotalCount int                  `json:"total_count"`
}

// QueueStats splits a queue into jobs waiting and jobs being processed.
type QueueStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
}

// NavbarStats are the counts shown in the navigation bar.
type NavbarStats struct {
	Queues map[string]QueueStats `json:"queues"`
	Failed int                   `json:"failed"`
}

// StatsService computes dashboard statistics.
type StatsService struct {
	objects repository.ObjectRepository
	queues  queue.Backend
	cache   *cache.Cache
}

// NewStatsService builds the service.
func NewStatsService(objects repository.ObjectRepository, queues queue.Backend, c *cache.Cache) *StatsService {
	return &StatsService{objects: objects, queues: queues, cache: c}
}

// Overview returns the overview counts, cached for StatsCacheTTL.
func (s *StatsService) Overview(ctx context.Context) (OverviewStats, error) {
	return cache.GetOrCompute(ctx, s.cache, overviewStatsKey, StatsCacheTTL, s.computeOverview)
}

// Navbar returns the navbar counts, cached for StatsCacheTTL.
func (s *StatsService) Navbar(ctx context.Context) (NavbarStats, error) {
	return cache.GetOrCompute(ctx, s.cache, navbarStatsKey, StatsCacheTTL, s.computeNavbar)
}

func (s *StatsService) computeOverview(ctx context.Context) (OverviewStats, error) {
	steps := map[string]StepCount{}
	jobCount := 0
	for _, q := range domain.QueueTypes {
		count, err := s.queues.PendingCount(ctx, q)
		if err != nil {
			return OverviewStats{}, err
		}
		steps[string(q)] = StepCount{Count: int(count)}
		jobCount += int(count)
	}

	failed, err := s.queues.FailedCount(ctx)
	if err != nil {
		return OverviewStats{}, err
	}

	counts, err := s.objects.Counts(ctx)
	if err != nil {
		return OverviewStats{}, err
	}

	// The other categories are assumed to be disjoint; what remains is
	// pending. The value is not clamped so double counting shows up.
	pending := counts.Total - jobCount - int(failed) - counts.Frozen -
		counts.Rejected - counts.Submitted - counts.Preserved

	steps["pending"] = StepCount{Count: pending}
	steps["preserved"] = StepCount{Count: counts.Preserved}
	steps["rejected"] = StepCount{Count: counts.Rejected}
	steps["submitted"] = StepCount{Count: counts.Submitted}
	steps["frozen"] = StepCount{Count: counts.Frozen}
	steps["failed"] = StepCount{Count: int(failed)}

	return OverviewStats{Steps: steps, TotalCount: counts.Total}, nil
}

func (s *StatsService) computeNavbar(ctx context.Context) (NavbarStats, error) {
	result := NavbarStats{Queues: map[string]QueueStats{}}
	for _, q := range domain.QueueTypes {
		pending, err := s.queues.PendingCount(ctx, q)
		if err != nil {
			return NavbarStats{}, err
		}
		processing, err := s.queues.StartedCount(ctx, q)
		if err != nil {
			return NavbarStats{}, err
		}
		result.Queues[string(q)] = QueueStats{Pending: int(pending), Processing: int(processing)}
	}

	failed, err := s.queues.FailedCount(ctx)
	if err != nil {
		return NavbarStats{}, err
	}
	result.Failed = int(failed)
	return result, nil
}

// AvailableObjectCount is the number of objects that could be enqueued right
// now: objects pending preservation minus those already in the workflow.
func (s *StatsService) AvailableObjectCount(ctx context.Context) (int, error) {
	pending, err := s.objects.CountPreservationPending(ctx)
	if err != nil {
		return 0, err
	}
	enqueued, err := s.queues.EnqueuedObjectIDs(ctx)
	if err != nil {
		return 0, err
	}
	return pending - len(enqueued), nil
}
