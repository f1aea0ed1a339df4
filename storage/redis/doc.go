// Package redis provides Redis client initialization and health
// checking for deployments that externalize rate-limit state.
//
// A single application instance can keep failed-login windows and IP
// blocks in memory, but instances behind a load balancer must share
// them or an attacker gets a fresh attempt budget per instance. This
// package produces the go-redis client that ratelimit.RedisStore runs
// on.
//
// Connect validates the URL, dials with linear backoff retry, and
// verifies connectivity with a ping before returning the client:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	store := ratelimit.NewRedisStore(client)
//
// Healthcheck returns a probe function for readiness endpoints.
package redis
