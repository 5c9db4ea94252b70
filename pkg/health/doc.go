// Package health serves liveness and readiness probes.
//
// Readiness runs every registered check concurrently under one deadline and
// answers 503 if any of them fails:
//
//	checks := health.Checks{
//		"db":    db.Healthcheck(conn),
//		"redis": redis.Healthcheck(client),
//	}
//	mux.Get("/health/ready", health.ReadinessHandler(checks, health.WithLogger(log)))
//
// Plain text is the default body. Send Accept: application/json or
// ?format=json for the per-check report.
package health
