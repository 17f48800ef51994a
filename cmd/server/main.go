package main

import (
	"context"
	"net/http"

	"blog/internal/app"
	"blog/internal/cache"
	"blog/internal/db"
	httpx "blog/internal/http"
	"blog/internal/models"
	"blog/internal/util"
)

const cachePrefix = "blog:page:"

func main() {
	cfg := app.LoadConfig()
	app.SetupLogging(cfg)
	models.TextLimit = cfg.TextLimit

	d, err := db.Open(cfg.DatabaseURL)
	app.Must(err)
	app.Must(db.Migrate(d))

	var pc cache.PageCache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(context.Background(), cfg.RedisAddr, cachePrefix)
		app.Must(err)
		pc = rc
	}

	var render util.Renderer = util.JSONRenderer{}
	if cfg.TemplatesDir != "" {
		render = util.TemplateRenderer{Dir: cfg.TemplatesDir}
	}

	srv := httpx.NewServer(d, cfg, pc, render)
	app.Log.WithField("addr", cfg.Addr).Info("listening")
	app.Must(http.ListenAndServe(cfg.Addr, httpx.WithTimeout(srv)))
}
