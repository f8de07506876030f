// Package health provides liveness and readiness handlers for the ops server.
//
// Required checks (Postgres, the job manager) fail readiness with 503.
// Optional checks (Redis) only degrade it: the cache is an accelerator and
// every read falls through to the database while Redis is away.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(
//	    health.Checks{
//	        "postgres": db.Healthcheck(pool),
//	        "jobs":     job.Healthcheck(manager),
//	    },
//	    health.WithOptional(health.Checks{"redis": redis.Healthcheck(client)}),
//	    health.WithLogger(logger),
//	))
//
// Responses are plain text unless the client asks for JSON with
// "Accept: application/json" or "?format=json".
package health
