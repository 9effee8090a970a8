package queue

import (
	"context"
	"fmt"
	"time"

	"outreach_backend/internal/cadence/domain"
	"outreach_backend/internal/cadence/repository"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Store is the repository slice the queue needs.
type Store interface {
	repository.LeadReader
	ListPhonesForLeads(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID][]domain.Phone, error)
}

// Service serves read-only queue projections. Concurrent identical requests
// for the same owner collapse into one build via singleflight.
type Service struct {
	store      Store
	log        *logger.Logger
	sectionCap int
	group      singleflight.Group
	now        func() time.Time
}

func NewService(store Store, log *logger.Logger, sectionCap int) *Service {
	return &Service{
		store:      store,
		log:        log,
		sectionCap: sectionCap,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// GetQueue returns one section's ordered entries, or all sections when
// section is empty.
func (s *Service) GetQueue(ctx context.Context, ownerScope uuid.UUID, section Section) (map[Section][]Entry, error) {
	if section != "" && !ValidSection(section) {
		return nil, apperr.Validation(fmt.Sprintf("unknown queue section %q", section))
	}

	sections, err := s.build(ctx, ownerScope)
	if err != nil {
		return nil, err
	}

	if section != "" {
		return map[Section][]Entry{section: sections[section]}, nil
	}
	return sections, nil
}

// GetNextUp returns the single highest-priority entry, or nil when the queue
// is empty. Querying never mutates state; skipping is a client-side cursor.
func (s *Service) GetNextUp(ctx context.Context, ownerScope uuid.UUID) (*Entry, error) {
	sections, err := s.build(ctx, ownerScope)
	if err != nil {
		return nil, err
	}
	flat := Flatten(sections)
	if len(flat) == 0 {
		return nil, nil
	}
	return &flat[0], nil
}

func (s *Service) build(ctx context.Context, ownerScope uuid.UUID) (map[Section][]Entry, error) {
	v, err, shared := s.group.Do(ownerScope.String(), func() (any, error) {
		leads, err := s.store.ListActiveLeads(ctx, ownerScope)
		if err != nil {
			return nil, err
		}

		ids := make([]uuid.UUID, 0, len(leads))
		for _, l := range leads {
			ids = append(ids, l.ID)
		}
		phones, err := s.store.ListPhonesForLeads(ctx, ids)
		if err != nil {
			return nil, err
		}

		return Build(leads, phones, s.now(), s.sectionCap), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("queue build shared across concurrent requests", "owner_id", ownerScope)
	}
	return v.(map[Section][]Entry), nil
}
