package user

import "context"

// Resolver is what other services need to look up a user. [Client]
// resolves over HTTP; [Local] reads the user service in-process.
type Resolver interface {
	Resolve(ctx context.Context, id int64) (User, bool)
}

// Local resolves users straight from a Service, for processes that run the
// user service alongside its consumers.
type Local struct {
	Service *Service
}

// Resolve returns the user and true, or false on any error.
func (l Local) Resolve(ctx context.Context, id int64) (User, bool) {
	u, err := l.Service.Get(ctx, id)
	if err != nil {
		return User{}, false
	}
	return u, true
}
