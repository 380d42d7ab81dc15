package service

import (
	"context"
	"errors"
	"io/fs"

	"github.com/jackc/pgx/v5"

	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/logfiles"
	"github.com/passari/web-ui/internal/queue"
	"github.com/passari/web-ui/internal/repository"
	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

// SIPItem is one row of the SIP listing.
type SIPItem struct {
	Package      domain.MuseumPackage
	Object       domain.MuseumObject
	Status       domain.PackageStatus
	CanReenqueue bool
	// Queues is only filled for latest packages that are still processing.
	Queues []string
}

// SIPDetails is a single SIP with its logs.
type SIPDetails struct {
	SIPItem
	LogFilenames []string
}

// PackageService covers SIP listings and SIP logs.
type PackageService struct {
	packages repository.PackageRepository
	queues   queue.Backend
	logs     *logfiles.Reader
}

// NewPackageService builds the service.
func NewPackageService(packages repository.PackageRepository, queues queue.Backend, logs *logfiles.Reader) *PackageService {
	return &PackageService{packages: packages, queues: queues, logs: logs}
}

// List returns one page of SIPs. Queue names for the whole page are fetched
// with a single lookup.
func (s *PackageService) List(ctx context.Context, filter repository.PackageFilter) (repository.Page[SIPItem], error) {
	page, err := s.packages.List(ctx, filter)
	if err != nil {
		return repository.Page[SIPItem]{}, err
	}

	var objectIDs []int64
	for i := range page.Items {
		item := &page.Items[i]
		if item.Package.IsLatestFor(&item.Object) {
			objectIDs = append(objectIDs, item.Package.MuseumObjectID)
		}
	}
	queueNames, err := s.queues.ObjectIDToQueues(ctx, objectIDs)
	if err != nil {
		return repository.Page[SIPItem]{}, err
	}

	items := make([]SIPItem, 0, len(page.Items))
	for i := range page.Items {
		item := newSIPItem(&page.Items[i])
		if item.Status == domain.PackageStatusProcessing && item.Package.IsLatestFor(&item.Object) {
			if names, ok := queueNames[item.Package.MuseumObjectID]; ok {
				item.Queues = names
			}
		}
		items = append(items, item)
	}

	return repository.Page[SIPItem]{
		Items:   items,
		Page:    page.Page,
		PerPage: page.PerPage,
		Total:   page.Total,
	}, nil
}

func newSIPItem(pkg *domain.PackageWithObject) SIPItem {
	return SIPItem{
		Package:      pkg.Package,
		Object:       pkg.Object,
		Status:       pkg.Package.Status(),
		CanReenqueue: pkg.Package.CanReenqueue(&pkg.Object),
		Queues:       []string{},
	}
}

// Get returns a single SIP together with its log file names.
func (s *PackageService) Get(ctx context.Context, packageID int64) (*SIPDetails, error) {
	pkg, err := s.packages.GetWithObject(ctx, packageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("package", map[string]any{"package_id": packageID})
		}
		return nil, err
	}

	names, err := s.logs.Filenames(pkg.Package.MuseumObjectID, pkg.Package.SIPFilename)
	if err != nil {
		return nil, err
	}
	return &SIPDetails{SIPItem: newSIPItem(pkg), LogFilenames: names}, nil
}

// FindBySIPID finds the package of an object by its SIP id.
func (s *PackageService) FindBySIPID(ctx context.Context, objectID int64, sipID string) (*domain.MuseumPackage, error) {
	pkg, err := s.packages.GetByObjectAndSIPID(ctx, objectID, sipID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("package", map[string]any{"object_id": objectID, "sip_id": sipID})
		}
		return nil, err
	}
	return pkg, nil
}

// LogContent returns the content of one log file of a SIP.
func (s *PackageService) LogContent(ctx context.Context, sipFilename, logFilename string) (string, error) {
	pkg, err := s.packages.GetByFilename(ctx, sipFilename)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewNotFound("package", map[string]any{"sip_filename": sipFilename})
		}
		return "", err
	}

	content, err := s.logs.Content(pkg.MuseumObjectID, pkg.SIPFilename, logFilename)
	if err != nil {
		if errors.Is(err, logfiles.ErrInvalidName) {
			return "", apperrors.NewValidationError("invalid log file name", map[string]any{"log_filename": logFilename})
		}
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperrors.NewNotFound("log file", map[string]any{"log_filename": logFilename})
		}
		return "", err
	}
	return content, nil
}
