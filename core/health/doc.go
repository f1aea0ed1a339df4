// Package health provides HTTP health check handlers for container
// orchestration probes and load balancer checks.
//
// Liveness answers whether the process is running and checks nothing
// else. Readiness verifies the service's dependencies through the probe
// functions produced by the storage packages:
//
//	mux.HandleFunc("GET /health/live", health.Liveness)
//	mux.HandleFunc("GET /health/ready", health.Readiness(logger,
//		pg.Healthcheck(pool),
//		redis.Healthcheck(client),
//	))
//
// Health routes belong on the gate's exempt path list so probes never
// need a session.
package health
