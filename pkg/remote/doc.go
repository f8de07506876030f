// Package remote is the HTTP client taskhub services use to read records
// owned by a sibling service (users for projects, projects for tasks).
//
// Calls go through a circuit breaker (sony/gobreaker). Results are meant
// to be cached with cache.Lookup, which turns every error from this package
// into "absent":
//
//	users, _ := remote.New(cfg.UserServiceURL, remote.WithName("user-service"))
//
//	var body struct{ User User `json:"user"` }
//	err := users.GetJSON(ctx, "/api/auth/users/3", &body)
package remote
