package domain

import "time"

// The shared pseudo-member is always available as an event owner but is never stored.
const (
	SharedMemberID   = "__shared"
	SharedMemberName = "공용"
)

// DefaultMaxMembers is the cap on stored (real) members.
const DefaultMaxMembers = 5

// Member is a registered calendar participant.
type Member struct {
	ID        string    `json:"id" db:"id" yaml:"id"`
	Name      string    `json:"name" db:"name" yaml:"name"`
	Color     string    `json:"color" db:"color" yaml:"color"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" yaml:"createdAt"`
}

// CreateMemberRequest is the request body for registering a member.
type CreateMemberRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// IsReservedMember reports whether id or name collides with the shared pseudo-member.
func IsReservedMember(idOrName string) bool {
	return idOrName == SharedMemberID || idOrName == SharedMemberName
}
