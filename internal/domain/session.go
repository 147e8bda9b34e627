package domain

type Role string

const (
	RoleHousehold   Role = "household"
	RoleCoordinator Role = "coordinator"
	RoleAdmin       Role = "admin"
)

// Session is the caller identity handed to the engine by the authentication layer.
type Session struct {
	UserID       int32        `json:"user_id"`
	HouseholdID  int32        `json:"household_id"`
	PriorityTier PriorityTier `json:"priority_tier"`
	Role         Role         `json:"role"`
}

func (s Session) IsCoordinator() bool {
	return s.Role == RoleCoordinator || s.Role == RoleAdmin
}
