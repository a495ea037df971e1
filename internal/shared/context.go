package shared

import "context"

// Role is the organisational role of an actor.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManagement Role = "management"
	RoleManager    Role = "manager"
	RoleStaff      Role = "staff"
)

// Actor identifies who performs an operation.
type Actor struct {
	ID         int64  `json:"id"`
	Name       string `json:"name,omitempty"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
