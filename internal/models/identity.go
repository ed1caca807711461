package models

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleOrganizer Role = "ORGANIZER"
	RoleAttendee  Role = "ATTENDEE"
)

type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
)

// Identity is the answer of the user-directory service for a single user.
// Account management itself lives outside this service; we only consume
// the lookup for authorization decisions.
type Identity struct {
	UserID string     `json:"user_id"`
	Role   Role       `json:"role"`
	Status UserStatus `json:"status"`
}

// Admin reports whether the identity carries the administrative role.
func (i *Identity) Admin() bool {
	return i.Role == RoleAdmin
}

// Active reports whether the account may perform purchases. Admins are
// exempt from the active-status requirement.
func (i *Identity) Active() bool {
	return i.Role == RoleAdmin || i.Status == UserActive
}
