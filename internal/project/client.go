package project

import (
	"context"
	"strconv"

	"github.com/dmitrymomot/taskhub/internal/platform"
	"github.com/dmitrymomot/taskhub/pkg/cache"
	"github.com/dmitrymomot/taskhub/pkg/remote"
)

// Resolver is what other services need to look up a project.
type Resolver interface {
	Resolve(ctx context.Context, id int64) (Project, bool)
}

// Client resolves projects through the project service's HTTP API,
// caching hits under "project:external:{id}".
type Client struct {
	remote *remote.Client
	lookup *cache.Lookup[Project]
}

// NewClient wraps rc, a client pointed at the project service.
func NewClient(rc *remote.Client, deps platform.Deps) *Client {
	deps = deps.Normalize()
	return &Client{
		remote: rc,
		lookup: cache.NewLookup[Project](deps.Store, Keys, deps.CacheOptions(deps.TTL.ProjectLookup)...),
	}
}

// Resolve returns the project and true, or false when it does not exist or
// the project service could not be reached.
func (c *Client) Resolve(ctx context.Context, id int64) (Project, bool) {
	return c.lookup.Resolve(ctx, id, func(ctx context.Context) (Project, error) {
		var body struct {
			Project *Project `json:"project"`
			Success bool     `json:"success"`
		}
		if err := c.remote.GetJSON(ctx, "/api/project/singleProject/"+strconv.FormatInt(id, 10), &body); err != nil {
			return Project{}, err
		}
		if !body.Success || body.Project == nil {
			return Project{}, ErrNotFound
		}
		return *body.Project, nil
	})
}

// Local resolves projects straight from a Service running in-process.
type Local struct {
	Service *Service
}

// Resolve returns the project and true, or false on any error.
func (l Local) Resolve(ctx context.Context, id int64) (Project, bool) {
	p, err := l.Service.Get(ctx, id)
	if err != nil {
		return Project{}, false
	}
	return p, true
}
