// Package pg provides PostgreSQL connection management with migrations
// and health checking, plus the pgx-backed repositories for sessions and
// security events.
//
// Connection establishment wraps pgxpool with application-level retry
// logic so transient network failures during startup do not kill the
// process. Schema migrations are embedded in the binary and applied with
// goose through a database/sql handle opened from the same pool.
//
// # Usage
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, logger); err != nil {
//		log.Fatal(err)
//	}
//
//	sessions := pg.NewSessions(pool)
//	events := pg.NewEvents(pool)
//
// The repositories honor a pgx.Tx carried in the context (see WithTx),
// so callers can group session mutations with their own writes in one
// transaction without changing repository signatures.
//
// # Error Handling
//
// Classification helpers translate driver errors into questions callers
// actually ask: IsNotFoundError, IsDuplicateKeyError,
// IsForeignKeyViolationError, IsTxClosedError.
package pg
