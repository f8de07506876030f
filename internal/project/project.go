// Package project owns projects and serves them through the cache: single
// projects, pages per project type, the project count, the type by status
// breakdown and the dashboard. Creators are resolved through the user
// lookup cache.
package project

import (
	"errors"
	"time"

	"github.com/dmitrymomot/taskhub/pkg/cache"
)

var (
	// ErrNotFound is returned when no project has the requested id.
	ErrNotFound = errors.New("project: not found")
	// ErrCreatorNotFound is returned when the creating user cannot be resolved.
	ErrCreatorNotFound = errors.New("project: creator not found")
)

// Keys is the project keyspace: "project:{id}",
// "projects:type:{t}:page:{p}:size:{s}", "projects:count",
// "projects:details" and "project:external:{id}" for remote lookups.
var Keys = cache.NewKeyspace("project", "projects")

// Known project types and statuses. The rebuild warms the first page of
// every type, and the details aggregate reports every type and status pair.
var (
	Types      = []string{"unknown", "Movie", "DRAMA", "Documentary", "Action", "Islamic", "Cartoon"}
	Statuses   = []string{"Pending", "In Progress", "Completed", "Planning", "On Hold"}
	Priorities = []string{"High", "Medium", "Low"}
)

const (
	aggregateDetails = "details"

	// UnknownCreator is shown when the creating user cannot be resolved.
	UnknownCreator = "Unknown"
)

// Project is the cached project, enriched with its creator.
type Project struct {
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Deadline            *time.Time `json:"deadline"`
	Image               *string    `json:"project_image"`
	Channel             *string    `json:"channel"`
	CreatorID           *int64     `json:"creator_id"`
	CreatorProfileImage *string    `json:"creator_profile_image"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	Status              string     `json:"status"`
	Priority            string     `json:"priority"`
	Type                string     `json:"project_type"`
	CreatorName         string     `json:"creator_name"`
	CreatorEmail        string     `json:"creator_email"`
	CreatorRole         string     `json:"creator_role"`
	ID                  int64      `json:"id"`
	CreatedBy           int64      `json:"created_by"`
	Progress            int        `json:"progress"`
}

// NewProject holds the fields of a project to create. Empty Status,
// Priority and Type take the column defaults.
type NewProject struct {
	Deadline    *time.Time
	Channel     *string
	Image       *string
	Name        string
	Description string
	Status      string
	Priority    string
	Type        string
	CreatedBy   int64
	Progress    int
}

// Update lists the fields to change; nil fields are left as they are.
type Update struct {
	Name        *string
	Description *string
	Deadline    *time.Time
	Status      *string
	Priority    *string
	Progress    *int
	Type        *string
	Channel     *string
	Image       *string
}

// Details counts projects per type and status. Every known pair is present,
// zero when no project matches.
type Details map[string]map[string]int64

// Dashboard is the summary shown on the dashboard.
type Dashboard struct {
	TotalProjects int64 `json:"totalProjects"`
}

// TypeStatusCount is one row of the details breakdown.
type TypeStatusCount struct {
	Type   string
	Status string
	Count  int64
}

// NewDetails arranges rows into a complete type by status table.
func NewDetails(rows []TypeStatusCount) Details {
	d := make(Details, len(Types))
	for _, t := range Types {
		d[t] = make(map[string]int64, len(Statuses))
		for _, s := range Statuses {
			d[t][s] = 0
		}
	}
	for _, r := range rows {
		if _, ok := d[r.Type]; !ok {
			d[r.Type] = make(map[string]int64)
		}
		d[r.Type][r.Status] += r.Count
	}
	return d
}
