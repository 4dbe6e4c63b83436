package services

import (
	"context"
	"errors"

	"github.com/chronica/backend/internal/apperr"
	"github.com/chronica/backend/internal/models"
	"github.com/chronica/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventService struct {
	DB    *gorm.DB
	Media *MediaService
}

func NewEventService(db *gorm.DB, media *MediaService) *EventService {
	return &EventService{DB: db, Media: media}
}

// EventInput carries the mutable fields of an event. The media payloads
// are optional data-URIs; an empty payload on update leaves that slot's
// stored media untouched.
type EventInput struct {
	TimelineName    string
	Date            string
	Description     string
	OriginalPayload string
	CroppedPayload  string
}

// Create generates the event identifier, writes any attached media and
// persists the record. Media objects are written before the record so a
// stored key always names an object that exists; a failed record write
// may leave orphaned objects, which is accepted.
func (s *EventService) Create(ctx context.Context, in EventInput) (*models.Event, error) {
	eventID := uuid.New()

	original, err := s.Media.Reconcile(ctx, eventID.String(), SlotOriginal, "", in.OriginalPayload)
	if err != nil {
		return nil, err
	}
	cropped, err := s.Media.Reconcile(ctx, eventID.String(), SlotCropped, "", in.CroppedPayload)
	if err != nil {
		return nil, err
	}

	event := models.Event{
		EventID:         eventID,
		TimelineName:    in.TimelineName,
		Date:            in.Date,
		Description:     in.Description,
		OriginalFileKey: original.Key,
		CroppedFileKey:  cropped.Key,
	}

	if err := s.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "failed saving event", err)
	}

	logger.Info("event_created", map[string]interface{}{
		"event_id":      event.EventID.String(),
		"timeline_name": event.TimelineName,
	})

	return &event, nil
}

// Update replaces the mutable fields of an existing event. The request's
// timeline must match the stored record; an event cannot be moved across
// timelines. Superseded media keys are purged only after the record
// write succeeds, so the record never ends up referencing a deleted
// object.
func (s *EventService) Update(ctx context.Context, eventID uuid.UUID, in EventInput) (*models.Event, error) {
	var event models.Event
	if err := s.DB.WithContext(ctx).First(&event, "event_id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "event not found")
		}
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "failed fetching event", err)
	}

	if event.TimelineName != in.TimelineName {
		return nil, apperr.New(apperr.KindTimelineMismatch, "event does not belong to specified timeline")
	}

	original, err := s.Media.Reconcile(ctx, eventID.String(), SlotOriginal, event.OriginalFileKey, in.OriginalPayload)
	if err != nil {
		return nil, err
	}
	cropped, err := s.Media.Reconcile(ctx, eventID.String(), SlotCropped, event.CroppedFileKey, in.CroppedPayload)
	if err != nil {
		return nil, err
	}

	event.Date = in.Date
	event.Description = in.Description
	event.OriginalFileKey = original.Key
	event.CroppedFileKey = cropped.Key

	if err := s.DB.WithContext(ctx).Save(&event).Error; err != nil {
		// New media is already written but the old keys were kept, so
		// the stored record still references live objects.
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "failed saving event", err)
	}

	s.Media.Purge(ctx, append(original.Stale, cropped.Stale...))

	logger.Info("event_updated", map[string]interface{}{
		"event_id":      event.EventID.String(),
		"timeline_name": event.TimelineName,
	})

	return &event, nil
}

// Delete removes the event's media objects best-effort and then the
// record itself. Object-store failures are reported back but never block
// the record deletion; the record is the authoritative state.
func (s *EventService) Delete(ctx context.Context, eventID uuid.UUID, timelineName string) (deleted, failed []string, err error) {
	var event models.Event
	if err := s.DB.WithContext(ctx).First(&event, "event_id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.KindNotFound, "event not found")
		}
		return nil, nil, apperr.Wrap(apperr.KindStoreUnavailable, "failed fetching event", err)
	}

	if event.TimelineName != timelineName {
		return nil, nil, apperr.New(apperr.KindNotFound, "event does not belong to specified timeline")
	}

	deleted, failed = s.Media.DeleteAll(ctx, []string{event.OriginalFileKey, event.CroppedFileKey})

	if err := s.DB.WithContext(ctx).Delete(&models.Event{}, "event_id = ?", eventID).Error; err != nil {
		return deleted, failed, apperr.Wrap(apperr.KindStoreUnavailable, "failed deleting event", err)
	}

	logger.Info("event_deleted", map[string]interface{}{
		"event_id":      eventID.String(),
		"timeline_name": timelineName,
		"deleted_media": deleted,
		"failed_media":  failed,
	})

	return deleted, failed, nil
}

func (s *EventService) ListByTimeline(ctx context.Context, timelineName string) ([]models.Event, error) {
	var events []models.Event
	err := s.DB.WithContext(ctx).
		Where("timeline_name = ?", timelineName).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "failed fetching events", err)
	}
	return events, nil
}
