package wardrobe

import (
	"context"

	"wardrobe/internal/database"
	"wardrobe/internal/identity"
	"wardrobe/internal/models"
)

const collectionEvents = "events"

func (s *Service) CreateEvent(ctx context.Context, sess *identity.Session, event models.Event) (*models.Event, error) {
	if _, err := sess.CurrentUserID(); err != nil {
		return nil, err
	}
	if err := s.validateStruct(event); err != nil {
		s.metrics.RecordOperation(collectionEvents, "create", err)
		return nil, err
	}

	created, err := database.CreateEvent(ctx, s.db, sess, event)
	s.metrics.RecordOperation(collectionEvents, "create", err)
	return created, err
}

func (s *Service) ListEvents(ctx context.Context, sess *identity.Session, f models.EventFilter) ([]models.Event, error) {
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, models.Invalid("end date is before start date")
	}

	events, err := database.ListEvents(ctx, s.db, sess, f)
	s.metrics.RecordOperation(collectionEvents, "list", err)
	return events, err
}

func (s *Service) GetEvent(ctx context.Context, sess *identity.Session, eventID string) (*models.Event, error) {
	event, err := database.GetEvent(ctx, s.db, sess, eventID)
	s.metrics.RecordOperation(collectionEvents, "get", err)
	return event, err
}

func (s *Service) UpdateEvent(ctx context.Context, sess *identity.Session, eventID string, patch models.EventPatch) (*models.Event, error) {
	if _, err := sess.CurrentUserID(); err != nil {
		return nil, err
	}
	if err := s.validateStruct(patch); err != nil {
		s.metrics.RecordOperation(collectionEvents, "update", err)
		return nil, err
	}

	updated, err := database.UpdateEvent(ctx, s.db, sess, eventID, patch)
	s.metrics.RecordOperation(collectionEvents, "update", err)
	return updated, err
}

func (s *Service) DeleteEvent(ctx context.Context, sess *identity.Session, eventID string) error {
	err := database.DeleteEvent(ctx, s.db, sess, eventID)
	s.metrics.RecordOperation(collectionEvents, "delete", err)
	return err
}

func (s *Service) EventsMetadata(ctx context.Context, sess *identity.Session) (*models.EventsMetadata, error) {
	return database.GetEventsMetadata(ctx, s.db, sess)
}
