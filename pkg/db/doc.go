// Package db connects taskhub to PostgreSQL, the authoritative store
// behind every cache.
//
// [Connect] opens a [github.com/jackc/pgx/v5/pgxpool] pool with startup
// retries. The same pool backs three consumers:
//
//   - repositories, through the database/sql handle from [OpenSQL]
//     (queries are built with squirrel)
//   - [Migrate], which applies embedded goose migrations at boot
//   - the River job manager in pkg/job
//
// # Configuration
//
//	DATABASE_URL                - PostgreSQL connection URL (required)
//	DATABASE_MIGRATIONS_TABLE   - goose version table (default: taskhub_migrations)
//	DATABASE_MAX_OPEN_CONNS     - pool size (default: 20)
//	DATABASE_MIN_CONNS          - idle connections kept open (default: 2)
//	DATABASE_HEALTHCHECK_PERIOD - pool health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - idle connection lifetime (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - connect attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - base retry interval (default: 5s)
//
// # Usage
//
//	pool, err := db.Connect(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	if err := db.Migrate(ctx, pool, migrations.FS, cfg.Database.MigrationsTable, logger); err != nil {
//	    return err
//	}
//	repo := project.NewPostgres(db.OpenSQL(pool))
//
// [WithTx] wraps multi-statement writes; [Healthcheck] and [Shutdown] plug
// into the ops server and the shutdown sequence.
package db
