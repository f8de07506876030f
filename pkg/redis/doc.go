// Package redis builds the go-redis client backing taskhub's cache store.
//
// Settings come from [Config], loaded from the environment. Two
// constructors cover the two boot modes:
//
//   - [NewClient] builds a client lazily. Services boot while Redis is down
//     and the cache falls through to the database.
//   - [Open] pings with retries and fails when Redis stays unreachable.
//
// [Connect] picks between them with Config.RequiredOnBoot.
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//	    return err
//	}
//	store := cache.NewRedis(client, cache.WithPrefix("taskhub"))
//
// [Healthcheck] and [Shutdown] plug into the ops server and the shutdown
// sequence.
package redis
