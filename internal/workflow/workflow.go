// Package workflow implements the preservation workflow operations the web
// UI can trigger: enqueueing new objects, freezing and unfreezing objects
// and re-enqueueing objects whose SIP was rejected.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/queue"
	"github.com/passari/web-ui/internal/repository"
	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

// JobRunningError is returned by Freeze when some of the objects are being
// processed by a worker right now.
type JobRunningError struct {
	ObjectIDs []int64
}

func (e *JobRunningError) Error() string {
	ids := make([]string, 0, len(e.ObjectIDs))
	for _, id := range e.ObjectIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return "The following object IDs have running jobs and can't be frozen: " + strings.Join(ids, ", ")
}

// UnfreezeInput selects the objects to unfreeze. When both filters are set
// only objects matching both are unfrozen.
type UnfreezeInput struct {
	Reason    *string
	ObjectIDs []int64
	Enqueue   bool
}

// Client is the set of workflow operations.
type Client interface {
	Enqueue(ctx context.Context, n int) (int, error)
	Freeze(ctx context.Context, objectIDs []int64, reason string, source domain.FreezeSource) (frozen, cancelled int, err error)
	Unfreeze(ctx context.Context, input UnfreezeInput) (int, error)
	Reenqueue(ctx context.Context, objectID int64) error
}

// TxBeginner starts database transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Dependencies bundles the collaborators of the workflow client.
type Dependencies struct {
	DB       TxBeginner
	Objects  repository.ObjectRepository
	Packages repository.PackageRepository
	Queues   queue.Backend
	// ObjectsInTx binds an object repository to a transaction.
	ObjectsInTx func(repository.Querier) repository.ObjectRepository
	Logger      *zap.Logger
}

type client struct {
	db          TxBeginner
	objects     repository.ObjectRepository
	packages    repository.PackageRepository
	queues      queue.Backend
	objectsInTx func(repository.Querier) repository.ObjectRepository
	logger      *zap.Logger
}

// NewClient builds the workflow client.
func NewClient(deps Dependencies) Client {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	objectsInTx := deps.ObjectsInTx
	if objectsInTx == nil {
		objectsInTx = repository.NewObjectRepositoryWith
	}
	return &client{
		db:          deps.DB,
		objects:     deps.Objects,
		packages:    deps.Packages,
		queues:      deps.Queues,
		objectsInTx: objectsInTx,
		logger:      logger,
	}
}

// Enqueue pushes up to n preservation-pending objects that are not yet in
// the workflow into the download queue, lowest ids first.
func (c *client) Enqueue(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	enqueued, err := c.queues.EnqueuedObjectIDs(ctx)
	if err != nil {
		return 0, err
	}
	ids, err := c.objects.PreservationPendingIDs(ctx, enqueued, n)
	if err != nil {
		return 0, err
	}
	return c.push(ctx, ids)
}

func (c *client) push(ctx context.Context, ids []int64) (int, error) {
	for i, id := range ids {
		if _, err := c.queues.Push(ctx, domain.QueueDownloadObject, id); err != nil {
			return i, err
		}
	}
	if len(ids) > 0 {
		c.logger.Info("objects enqueued", zap.Int("count", len(ids)))
	}
	return len(ids), nil
}

// Freeze stops processing of the given objects. It refuses to touch anything
// if a worker is processing one of them.
func (c *client) Freeze(ctx context.Context, objectIDs []int64, reason string, source domain.FreezeSource) (int, int, error) {
	if len(objectIDs) == 0 {
		return 0, 0, apperrors.NewValidationError("no objects to freeze", nil)
	}
	if strings.TrimSpace(reason) == "" {
		return 0, 0, apperrors.NewValidationError("freeze reason is required", nil)
	}

	running, err := c.queues.StartedObjectIDs(ctx, objectIDs)
	if err != nil {
		return 0, 0, err
	}
	if len(running) > 0 {
		return 0, 0, &JobRunningError{ObjectIDs: running}
	}

	var frozen, cancelled int
	err = c.inTx(ctx, func(objects repository.ObjectRepository) error {
		var err error
		if frozen, err = objects.Freeze(ctx, objectIDs, reason, source); err != nil {
			return err
		}
		cancelled, err = objects.CancelLatestPackages(ctx, objectIDs)
		return err
	})
	if err != nil {
		return 0, 0, err
	}

	if _, err := c.queues.RemovePendingJobs(ctx, objectIDs); err != nil {
		return frozen, cancelled, err
	}
	c.logger.Info("objects frozen",
		zap.Int("frozen", frozen),
		zap.Int("cancelled_packages", cancelled),
		zap.String("reason", reason))
	return frozen, cancelled, nil
}

// Unfreeze unfreezes objects by reason and/or ids and optionally enqueues
// the ones eligible for preservation.
func (c *client) Unfreeze(ctx context.Context, input UnfreezeInput) (int, error) {
	if input.Reason != nil && *input.Reason == "" {
		input.Reason = nil
	}
	if input.Reason == nil && len(input.ObjectIDs) == 0 {
		return 0, apperrors.NewValidationError("either a reason or object ids are required", nil)
	}

	var unfrozen []int64
	err := c.inTx(ctx, func(objects repository.ObjectRepository) error {
		var err error
		unfrozen, err = objects.Unfreeze(ctx, input.Reason, input.ObjectIDs)
		return err
	})
	if err != nil {
		return 0, err
	}
	c.logger.Info("objects unfrozen", zap.Int("count", len(unfrozen)))

	if input.Enqueue && len(unfrozen) > 0 {
		if err := c.enqueueSpecific(ctx, unfrozen); err != nil {
			return len(unfrozen), err
		}
	}
	return len(unfrozen), nil
}

func (c *client) enqueueSpecific(ctx context.Context, ids []int64) error {
	pending, err := c.objects.FilterPreservationPending(ctx, ids)
	if err != nil {
		return err
	}
	enqueued, err := c.queues.EnqueuedObjectIDs(ctx)
	if err != nil {
		return err
	}
	skip := make(map[int64]struct{}, len(enqueued))
	for _, id := range enqueued {
		skip[id] = struct{}{}
	}
	toPush := make([]int64, 0, len(pending))
	for _, id := range pending {
		if _, ok := skip[id]; !ok {
			toPush = append(toPush, id)
		}
	}
	_, err = c.push(ctx, toPush)
	return err
}

// Reenqueue sends an object whose latest SIP was rejected through the
// workflow again. Every precondition is checked before anything changes.
func (c *client) Reenqueue(ctx context.Context, objectID int64) error {
	object, err := c.objects.GetByID(ctx, objectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("object", map[string]any{"object_id": objectID})
		}
		return err
	}
	if object.LatestPackageID == nil {
		return apperrors.NewPreconditionError(
			fmt.Sprintf("Object %d doesn't have a package", objectID), nil)
	}

	latest, err := c.packages.GetWithObject(ctx, *object.LatestPackageID)
	if err != nil {
		return err
	}
	if !latest.Package.Rejected {
		return apperrors.NewPreconditionError(
			fmt.Sprintf("Latest package %s wasn't rejected", latest.Package.SIPFilename), nil)
	}

	queues, err := c.queues.ObjectIDToQueues(ctx, []int64{objectID})
	if err != nil {
		return err
	}
	if names := queues[objectID]; len(names) > 0 {
		return apperrors.NewPreconditionError(
			fmt.Sprintf("Object %d is still in the workflow (%s)", objectID, strings.Join(names, ", ")), nil)
	}

	err = c.inTx(ctx, func(objects repository.ObjectRepository) error {
		if err := objects.ClearLatestPackage(ctx, objectID); err != nil {
			return err
		}
		_, err := c.queues.Push(ctx, domain.QueueDownloadObject, objectID)
		return err
	})
	if err != nil {
		return err
	}
	c.logger.Info("object re-enqueued", zap.Int64("object_id", objectID))
	return nil
}

// inTx runs fn inside a transaction, committing only when it succeeds.
func (c *client) inTx(ctx context.Context, fn func(repository.ObjectRepository) error) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(c.objectsInTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
