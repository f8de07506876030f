package user

import (
	"context"
	"strconv"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/pkg/cache"
	"github.com/dmitrymomot/taskhub/pkg/remote"
)

// Client resolves users for other services through the user service's
// HTTP API, caching hits under "user:external:{id}".
type Client struct {
	remote *remote.Client
	lookup *cache.Lookup[User]
}

// NewClient wraps rc, a client pointed at the user service.
func NewClient(rc *remote.Client, deps platform.Deps) *Client {
	deps = deps.Normalize()
	return &Client{
		remote: rc,
		lookup: cache.NewLookup[User](deps.Store, Keys, deps.CacheOptions(deps.TTL.Lookup)...),
	}
}

// Resolve returns the user and true, or false when the user does not exist
// or the user service could not be reached. Absence is not cached.
func (c *Client) Resolve(ctx context.Context, id int64) (User, bool) {
	return c.lookup.Resolve(ctx, id, func(ctx context.Context) (User, error) {
		var body struct {
			User *User `json:"user"`
		}
		if err := c.remote.GetJSON(ctx, "/api/auth/users/"+strconv.FormatInt(id, 10), &body); err != nil {
			return User{}, err
		}
		if body.User == nil {
			return User{}, ErrNotFound
		}
		return *body.User, nil
	})
}

// Forget drops cached copies of the given users.
func (c *Client) Forget(ctx context.Context, ids ...int64) {
	keys := make([]any, len(ids))
	for i, id := range ids {
		keys[i] = id
	}
	c.lookup.Forget(ctx, keys...)
}
