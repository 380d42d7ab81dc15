package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/events"
	"github.com/passari/web-ui/internal/repository"
	"github.com/passari/web-ui/internal/workflow"
	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

// ObjectService covers museum object listings and the workflow actions
// that operate on objects.
type ObjectService struct {
	objects    repository.ObjectRepository
	workflow   workflow.Client
	stats      *StatsService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ObjectDependencies bundles the collaborators of ObjectService.
type ObjectDependencies struct {
	ObjectRepo repository.ObjectRepository
	Workflow   workflow.Client
	Stats      *StatsService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewObjectService builds the service.
func NewObjectService(deps ObjectDependencies) *ObjectService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectService{
		objects:    deps.ObjectRepo,
		workflow:   deps.Workflow,
		stats:      deps.Stats,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ListFrozen lists frozen objects matching the search.
func (s *ObjectService) ListFrozen(ctx context.Context, search string, page repository.PageRequest) (repository.Page[domain.MuseumObject], error) {
	return s.objects.ListFrozen(ctx, repository.ParseSearch(search), page)
}

// FreezeReasonCounts lists freeze reasons, most common first.
func (s *ObjectService) FreezeReasonCounts(ctx context.Context) ([]domain.FreezeReasonCount, error) {
	return s.objects.FreezeReasonCounts(ctx)
}

// AvailableCount is the number of objects that can be enqueued.
func (s *ObjectService) AvailableCount(ctx context.Context) (int, error) {
	return s.stats.AvailableObjectCount(ctx)
}

// ValidateEnqueueCount checks that count is within 1 and the number of
// available objects. It returns the available count.
func (s *ObjectService) ValidateEnqueueCount(ctx context.Context, count int) (int, error) {
	available, err := s.AvailableCount(ctx)
	if err != nil {
		return 0, err
	}
	if available <= 0 {
		return available, apperrors.NewValidationError(
			"There are no objects pending preservation at the moment",
			map[string]any{"field": "object_count"})
	}
	if count < 1 || count > available {
		return available, apperrors.NewValidationError(
			fmt.Sprintf("Object count has to be in range 1 - %d", available),
			map[string]any{"field": "object_count"})
	}
	return available, nil
}

// MissingObjectIDs returns the given ids that don't exist, sorted.
func (s *ObjectService) MissingObjectIDs(ctx context.Context, ids []int64) ([]int64, error) {
	existing, err := s.objects.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}
	missing := []int64{}
	seen := map[int64]struct{}{}
	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

// ObjectExists reports whether an object with the id exists.
func (s *ObjectService) ObjectExists(ctx context.Context, id int64) (bool, error) {
	missing, err := s.MissingObjectIDs(ctx, []int64{id})
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// FrozenReasonExists reports whether any frozen object has exactly this reason.
func (s *ObjectService) FrozenReasonExists(ctx context.Context, reason string) (bool, error) {
	return s.objects.FrozenWithReasonExists(ctx, reason)
}

// Enqueue adds up to count pending objects to the workflow.
func (s *ObjectService) Enqueue(ctx context.Context, actor events.Actor, count int) (int, error) {
	enqueued, err := s.workflow.Enqueue(ctx, count)
	if err != nil {
		return enqueued, err
	}
	s.publish(ctx, events.NewEvent(events.EventObjectsEnqueued, actor,
		events.ObjectsEnqueuedPayload{Requested: count, Enqueued: enqueued}))
	return enqueued, nil
}

// Freeze freezes objects on behalf of a user.
func (s *ObjectService) Freeze(ctx context.Context, actor events.Actor, ids []int64, reason string) (int, int, error) {
	reason = strings.TrimSpace(reason)
	frozen, cancelled, err := s.workflow.Freeze(ctx, ids, reason, domain.FreezeSourceUser)
	if err != nil {
		return 0, 0, err
	}
	s.publish(ctx, events.NewEvent(events.EventObjectsFrozen, actor, events.ObjectsFrozenPayload{
		ObjectIDs:         ids,
		Reason:            reason,
		Frozen:            frozen,
		CancelledPackages: cancelled,
	}))
	return frozen, cancelled, nil
}

// Unfreeze unfreezes objects by reason and/or ids.
func (s *ObjectService) Unfreeze(ctx context.Context, actor events.Actor, input workflow.UnfreezeInput) (int, error) {
	count, err := s.workflow.Unfreeze(ctx, input)
	if err != nil {
		return count, err
	}
	s.publish(ctx, events.NewEvent(events.EventObjectsUnfrozen, actor, events.ObjectsUnfrozenPayload{
		ObjectIDs: input.ObjectIDs,
		Reason:    input.Reason,
		Enqueue:   input.Enqueue,
		Count:     count,
	}))
	return count, nil
}

// Reenqueue sends an object with a rejected SIP through the workflow again.
func (s *ObjectService) Reenqueue(ctx context.Context, actor events.Actor, objectID int64) error {
	if err := s.workflow.Reenqueue(ctx, objectID); err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EventObjectReenqueued, actor,
		events.ObjectReenqueuedPayload{ObjectID: objectID}))
	return nil
}

func (s *ObjectService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
