// Command flushcache drops every cached page from the shared Redis cache,
// for use after bulk edits that should show up before the TTL runs out.
package main

import (
	"context"
	"flag"
	"time"

	"blog/internal/app"
	"blog/internal/cache"
)

func main() {
	cfg := app.LoadConfig()
	addr := flag.String("redis", cfg.RedisAddr, "redis address")
	prefix := flag.String("prefix", "blog:page:", "cache key prefix")
	flag.Parse()
	app.SetupLogging(cfg)

	if *addr == "" {
		app.Log.Fatal("no redis address: set REDIS_ADDR or pass -redis")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rc, err := cache.NewRedisCache(ctx, *addr, *prefix)
	app.Must(err)
	err = rc.InvalidateAll(ctx)
	_ = rc.Close()
	app.Must(err)
}
