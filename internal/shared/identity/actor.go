package identity

import (
	"context"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "USER"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
	// RoleSystem is used by the payment collaborator and background jobs.
	RoleSystem Role = "SYSTEM"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleOrganizer, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Actor is the resolved caller of a core operation.
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

func New(userID uuid.UUID, role Role) Actor {
	return Actor{UserID: userID, Role: role}
}

// System returns the actor used for payment callbacks and jobs.
func System() Actor {
	return Actor{UserID: uuid.Nil, Role: RoleSystem}
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

func (a Actor) IsAnonymous() bool {
	return a.UserID == uuid.Nil && a.Role == ""
}

// Owns reports whether the actor may act on a resource owned by ownerID.
// Admins and the system actor own everything.
func (a Actor) Owns(ownerID uuid.UUID) bool {
	if a.IsAdmin() || a.IsSystem() {
		return true
	}
	return a.UserID != uuid.Nil && a.UserID == ownerID
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
