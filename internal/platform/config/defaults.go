package config

import "time"

const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultStaticDir       = "public"
	DefaultContentDir      = "content"

	DefaultPassphrase         = "xinqidong"
	DefaultSkillURL           = "/SKILL.md"
	DefaultLlmsTxtURL         = "/llms.txt"
	DefaultAIPluginURL        = "/.well-known/ai-plugin.json"
	DefaultMinRationaleLength = 5
	DefaultClientNavHeader    = "RSC"

	DefaultAccessLogBuffer       = 1024
	DefaultAccessLogWriteTimeout = 5 * time.Second
	DefaultBreakerThreshold      = 5
	DefaultBreakerCooldown       = 30 * time.Second

	DefaultAccessLogTopic = "dailybit.access_log"
	DefaultConsumerGroup  = "dailybit-access-log"

	DefaultSessionCookie = "dailybit_session"
	DefaultSessionTTL    = 7 * 24 * time.Hour

	// Development-only key; override with SESSION_SIGNING_KEY in production.
	devSessionSigningKey = "dev-session-key-change-in-production"
)

// Default path sets for the gate and classifier.
var (
	DefaultGatedPrefixes       = []string{"/api/articles", "/api/content", "/llms-full.txt"}
	DefaultJustifiedPrefixes   = []string{"/api/articles"}
	DefaultPermissionStates    = []string{"no_token", "has_token"}
	DefaultHumanFacingPrefixes = []string{"/home", "/about", "/feeds", "/archive", "/favorites", "/article/", "/articles/"}
	DefaultAuthAwarePrefixes   = []string{"/api/user", "/dashboard", "/favorites", "/feeds"}
)
