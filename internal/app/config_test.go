package app

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "DATABASE_URL", "POSTS_PER_PAGE", "CACHE_TTL_SECONDS", "TEXT_LIMIT", "REDIS_ADDR", "SESSION_LIFETIME_HOURS"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./blog.db", cfg.DatabaseURL)
	assert.Equal(t, DefaultPostsPerPage, cfg.PostsPerPage)
	assert.Equal(t, 20*time.Second, cfg.CacheTTL)
	assert.Equal(t, DefaultTextLimit, cfg.TextLimit)
	assert.Equal(t, 24*time.Hour, cfg.SessionLifetime)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("POSTS_PER_PAGE", "3")
	t.Setenv("CACHE_TTL_SECONDS", "5")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg := LoadConfig()
	assert.Equal(t, 3, cfg.PostsPerPage)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadConfigRejectsNonPositivePageSize(t *testing.T) {
	logger, hook := test.NewNullLogger()
	orig := Log
	Log = logger
	defer func() { Log = orig }()

	t.Setenv("POSTS_PER_PAGE", "-4")
	cfg := LoadConfig()
	assert.Equal(t, DefaultPostsPerPage, cfg.PostsPerPage)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "POSTS_PER_PAGE", hook.LastEntry().Data["key"])
}

func TestSetupLoggingUnknownLevel(t *testing.T) {
	logger, _ := test.NewNullLogger()
	orig := Log
	Log = logger
	defer func() { Log = orig }()

	SetupLogging(Config{LogLevel: "chatty"})
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
	SetupLogging(Config{LogLevel: "debug"})
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
}
