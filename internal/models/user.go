package models

type UserRole string

const (
	UserRoleSuperAdmin    UserRole = "super_admin"
	UserRoleTimelineAdmin UserRole = "timeline_admin"
	UserRoleViewer        UserRole = "viewer"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleSuperAdmin, UserRoleTimelineAdmin, UserRoleViewer:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role may create timelines and mutate events.
func (r UserRole) IsAdmin() bool {
	return r == UserRoleSuperAdmin || r == UserRoleTimelineAdmin
}

type User struct {
	BaseModel
	Email        string   `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Username     string   `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"type:text;not null"`
	FirstName    string   `json:"firstName" gorm:"type:varchar(100);not null"`
	Surname      string   `json:"surname" gorm:"type:varchar(100);not null"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;default:'viewer'"`
	// Timelines holds the names this user is permitted on. super_admin
	// is implicitly permitted everywhere regardless of its contents.
	Timelines       []string `json:"timelines" gorm:"type:jsonb;serializer:json"`
	RequestTimeline bool     `json:"requestTimeline" gorm:"not null;default:false"`
}

func (User) TableName() string {
	return "users"
}
