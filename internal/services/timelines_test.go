package services

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/chronica/backend/internal/apperr"
	"github.com/chronica/backend/internal/models"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, email string, role models.UserRole, timelines ...string) *models.User {
	t.Helper()

	if timelines == nil {
		timelines = []string{}
	}
	user := &models.User{
		Email:        email,
		Username:     email,
		PasswordHash: "x",
		FirstName:    "Test",
		Surname:      "User",
		Role:         role,
		Timelines:    timelines,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}
	return user
}

func TestTimelineServiceCreate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewTimelineService(db)

	viewer := seedUser(t, db, "viewer@test.com", models.UserRoleViewer)
	admin := seedUser(t, db, "admin@test.com", models.UserRoleTimelineAdmin)
	super := seedUser(t, db, "super@test.com", models.UserRoleSuperAdmin)

	t.Run("viewer may not create timelines", func(t *testing.T) {
		_, err := svc.Create(ctx, "ww2", viewer)
		if apperr.KindOf(err) != apperr.KindForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}

		var count int64
		db.Model(&models.Timeline{}).Count(&count)
		if count != 0 {
			t.Fatalf("expected no timeline created, found %d", count)
		}
	})

	t.Run("timeline admin creates and is granted access", func(t *testing.T) {
		timeline, err := svc.Create(ctx, "ww2", admin)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if timeline.Name != "ww2" {
			t.Fatalf("expected name ww2, got %q", timeline.Name)
		}

		var stored models.User
		if err := db.First(&stored, "email = ?", admin.Email).Error; err != nil {
			t.Fatalf("failed reloading user: %v", err)
		}
		if !reflect.DeepEqual(stored.Timelines, []string{"ww2"}) {
			t.Fatalf("expected grant persisted, got %v", stored.Timelines)
		}
		if !reflect.DeepEqual(admin.Timelines, []string{"ww2"}) {
			t.Fatalf("expected requester updated in place, got %v", admin.Timelines)
		}
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, "ww2", admin)
		if apperr.KindOf(err) != apperr.KindAlreadyExists {
			t.Fatalf("expected already exists, got %v", err)
		}
	})

	t.Run("super admin creates without touching the permitted set", func(t *testing.T) {
		if _, err := svc.Create(ctx, "cold-war", super); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var stored models.User
		if err := db.First(&stored, "email = ?", super.Email).Error; err != nil {
			t.Fatalf("failed reloading user: %v", err)
		}
		if len(stored.Timelines) != 0 {
			t.Fatalf("expected empty permitted set for super admin, got %v", stored.Timelines)
		}
	})

	t.Run("second grant stores valid JSON and round-trips", func(t *testing.T) {
		if _, err := svc.Create(ctx, "pacific-theatre", admin); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var raw string
		if err := db.Raw("SELECT timelines FROM users WHERE email = ?", admin.Email).Scan(&raw).Error; err != nil {
			t.Fatalf("failed reading raw timelines column: %v", err)
		}
		var decoded []string
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			t.Fatalf("expected JSON in timelines column, got %q: %v", raw, err)
		}
		if !reflect.DeepEqual(decoded, []string{"ww2", "pacific-theatre"}) {
			t.Fatalf("unexpected column contents %v", decoded)
		}

		var stored models.User
		if err := db.First(&stored, "email = ?", admin.Email).Error; err != nil {
			t.Fatalf("failed reloading user after second grant: %v", err)
		}
		if !reflect.DeepEqual(stored.Timelines, []string{"ww2", "pacific-theatre"}) {
			t.Fatalf("expected both grants persisted, got %v", stored.Timelines)
		}
	})

	t.Run("promoted viewer creates and loads cleanly afterwards", func(t *testing.T) {
		if err := db.Model(&models.User{}).Where("email = ?", viewer.Email).Update("role", models.UserRoleTimelineAdmin).Error; err != nil {
			t.Fatalf("failed promoting viewer: %v", err)
		}

		var promoted models.User
		if err := db.First(&promoted, "email = ?", viewer.Email).Error; err != nil {
			t.Fatalf("failed reloading promoted user: %v", err)
		}

		if _, err := svc.Create(ctx, "case-files", &promoted); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var reloaded models.User
		if err := db.First(&reloaded, "email = ?", viewer.Email).Error; err != nil {
			t.Fatalf("failed reloading user after grant: %v", err)
		}
		if !reflect.DeepEqual(reloaded.Timelines, []string{"case-files"}) {
			t.Fatalf("expected grant persisted, got %v", reloaded.Timelines)
		}
	})
}

func TestTimelineServiceVisible(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewTimelineService(db)

	for _, name := range []string{"ww2", "cold-war", "space-race"} {
		if err := db.Create(&models.Timeline{Name: name}).Error; err != nil {
			t.Fatalf("failed seeding timeline: %v", err)
		}
	}

	super := seedUser(t, db, "super@test.com", models.UserRoleSuperAdmin)
	viewer := seedUser(t, db, "viewer@test.com", models.UserRoleViewer, "space-race")

	t.Run("super admin sees every timeline sorted by name", func(t *testing.T) {
		visible, err := svc.Visible(ctx, super)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(visible, []string{"cold-war", "space-race", "ww2"}) {
			t.Fatalf("unexpected visible set %v", visible)
		}
	})

	t.Run("viewer sees only permitted timelines", func(t *testing.T) {
		visible, err := svc.Visible(ctx, viewer)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(visible, []string{"space-race"}) {
			t.Fatalf("unexpected visible set %v", visible)
		}
	})
}
