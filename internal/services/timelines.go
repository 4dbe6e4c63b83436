package services

import (
	"context"
	"errors"

	"github.com/chronica/backend/internal/apperr"
	"github.com/chronica/backend/internal/models"
	"github.com/chronica/backend/pkg/logger"
	"gorm.io/gorm"
)

type TimelineService struct {
	DB *gorm.DB
}

func NewTimelineService(db *gorm.DB) *TimelineService {
	return &TimelineService{DB: db}
}

// Create registers a new timeline name. The existence check followed by
// the insert is not atomic across the store boundary; concurrent
// creators of the same name race, and the loser surfaces the unique
// index violation as a store error. On success a non-super admin
// requester is granted the new timeline.
func (s *TimelineService) Create(ctx context.Context, name string, requester *models.User) (*models.Timeline, error) {
	if !requester.Role.IsAdmin() {
		return nil, apperr.New(apperr.KindForbidden, "user does not have permission to add timelines")
	}

	var existing models.Timeline
	err := s.DB.WithContext(ctx).First(&existing, "name = ?", name).Error
	if err == nil {
		return nil, apperr.New(apperr.KindAlreadyExists, "timeline already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "failed checking timeline", err)
	}

	timeline := models.Timeline{Name: name}
	if err := s.DB.WithContext(ctx).Create(&timeline).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "failed creating timeline", err)
	}

	if requester.Role != models.UserRoleSuperAdmin {
		granted := GrantTimeline(requester.Timelines, name)
		if len(granted) != len(requester.Timelines) {
			// Updates with the struct field so the JSON serializer runs;
			// a raw column update would store the slice unserialized.
			err := s.DB.WithContext(ctx).
				Model(&models.User{}).
				Where("email = ?", requester.Email).
				Updates(models.User{Timelines: granted}).Error
			if err != nil {
				return nil, apperr.Wrap(apperr.KindStoreUnavailable, "failed granting timeline access", err)
			}
			requester.Timelines = granted
		}
	}

	logger.InfoWithUser(requester.ID.String(), "timeline_created", map[string]interface{}{
		"timeline_name": name,
		"role":          requester.Role,
	})

	return &timeline, nil
}

// Visible returns the timeline names the user may read, per the
// authorization policy's read rule.
func (s *TimelineService) Visible(ctx context.Context, user *models.User) ([]string, error) {
	var timelines []models.Timeline
	if err := s.DB.WithContext(ctx).Order("name ASC").Find(&timelines).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "failed fetching timelines", err)
	}

	all := make([]string, len(timelines))
	for i, timeline := range timelines {
		all[i] = timeline.Name
	}

	return VisibleTimelines(user.Role, user.Timelines, all), nil
}
