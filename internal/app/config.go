package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPostsPerPage = 10
	DefaultCacheTTL     = 20 * time.Second
	DefaultTextLimit    = 15
)

type Config struct {
	Addr            string
	DatabaseURL     string
	SessionLifetime time.Duration
	PostsPerPage    int
	CacheTTL        time.Duration
	TextLimit       int
	RedisAddr       string
	TemplatesDir    string
	MediaDir        string
	LogLevel        string
}

// LoadConfig reads the configuration from the environment. A .env file in
// the working directory is loaded first when present; variables already set
// in the environment win over it.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		Log.WithError(err).Warn("could not load .env")
	}

	lifeHours := getenvInt("SESSION_LIFETIME_HOURS", 24)
	return Config{
		Addr:            getenv("ADDR", ":8080"),
		DatabaseURL:     getenv("DATABASE_URL", "./blog.db"),
		SessionLifetime: time.Duration(lifeHours) * time.Hour,
		PostsPerPage:    getenvInt("POSTS_PER_PAGE", DefaultPostsPerPage),
		CacheTTL:        time.Duration(getenvInt("CACHE_TTL_SECONDS", int(DefaultCacheTTL/time.Second))) * time.Second,
		TextLimit:       getenvInt("TEXT_LIMIT", DefaultTextLimit),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		TemplatesDir:    os.Getenv("TEMPLATES_DIR"),
		MediaDir:        getenv("MEDIA_DIR", "./media"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// getenvInt returns def when k is unset, not a number or not positive.
func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		Log.WithField("key", k).WithField("value", v).Warn("invalid config value, using default")
		return def
	}
	return n
}
