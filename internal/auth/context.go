package auth

import "context"

type actorKey struct{}

// Actor identifies the authenticated caller of a request.
type Actor struct {
	UserID    string
	SessionID string
}

// WithActor stores the authenticated actor on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.UserID == "" {
		return Actor{}, false
	}
	return actor, true
}
