package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration assembled at process start.
type Config struct {
	Server    Server
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Gate      GateConfig
	AccessLog AccessLogConfig
	Session   SessionConfig
	Content   ContentConfig
	Billing   BillingConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	StaticDir       string
	ShutdownTimeout time.Duration
	// MetricsToken guards /metrics; empty leaves it open.
	MetricsToken    string
}

// DatabaseConfig points at the Postgres record store.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

// RedisConfig configures the session store connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// GateConfig holds the agent gate and classifier settings. It is the only
// section that can be overlaid from a YAML file.
type GateConfig struct {
	Passphrase          string   `yaml:"passphrase"`
	SkillURL            string   `yaml:"skill_url"`
	LlmsTxtURL          string   `yaml:"llms_txt_url"`
	AIPluginURL         string   `yaml:"ai_plugin_url"`
	GatedPrefixes       []string `yaml:"gated_prefixes"`
	JustifiedPrefixes   []string `yaml:"justified_prefixes"`
	MinRationaleLength  int      `yaml:"min_rationale_length"`
	PermissionStates    []string `yaml:"permission_states"`
	HumanFacingPrefixes []string `yaml:"human_facing_prefixes"`
	AuthAwarePrefixes   []string `yaml:"auth_aware_prefixes"`
	ClientNavHeader     string   `yaml:"client_navigation_header"`
	ExtraAgentPatterns  []string `yaml:"extra_agent_patterns"`
}

// KafkaConfig routes access log records through a topic when Brokers is set.
type KafkaConfig struct {
	Brokers        []string
	AccessLogTopic string
	ConsumerGroup  string
	Partitions     int32
}

// AccessLogConfig tunes the asynchronous access logger.
type AccessLogConfig struct {
	BufferSize       int
	WriteTimeout     time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// SessionConfig configures browser session cookies.
type SessionConfig struct {
	SigningKey string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// UsesDevSigningKey reports whether SESSION_SIGNING_KEY was left unset and
// sessions are signed with the built-in development key.
func (c SessionConfig) UsesDevSigningKey() bool {
	return c.SigningKey == devSessionSigningKey
}

// ContentConfig locates the article corpus on disk.
type ContentConfig struct {
	Dir string
}

// BillingConfig holds the payment webhook secret.
type BillingConfig struct {
	WebhookSecret string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getenv("DAILYBIT_ADDR", DefaultAddr),
			LogLevel:        getenv("LOG_LEVEL", "info"),
			LogFormat:       getenv("LOG_FORMAT", "json"),
			StaticDir:       getenv("STATIC_DIR", DefaultStaticDir),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
			MetricsToken:    os.Getenv("METRICS_TOKEN"),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: int32(getInt("DATABASE_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(os.Getenv("KAFKA_BROKERS")),
			AccessLogTopic: getenv("KAFKA_ACCESS_LOG_TOPIC", DefaultAccessLogTopic),
			ConsumerGroup:  getenv("KAFKA_CONSUMER_GROUP", DefaultConsumerGroup),
			Partitions:     int32(getInt("KAFKA_PARTITIONS", 1)),
		},
		Gate: DefaultGate(),
		AccessLog: AccessLogConfig{
			BufferSize:       getInt("ACCESS_LOG_BUFFER", DefaultAccessLogBuffer),
			WriteTimeout:     getDuration("ACCESS_LOG_WRITE_TIMEOUT", DefaultAccessLogWriteTimeout),
			BreakerThreshold: getInt("ACCESS_LOG_BREAKER_THRESHOLD", DefaultBreakerThreshold),
			BreakerCooldown:  getDuration("ACCESS_LOG_BREAKER_COOLDOWN", DefaultBreakerCooldown),
		},
		Session: SessionConfig{
			SigningKey: getenv("SESSION_SIGNING_KEY", devSessionSigningKey),
			CookieName: getenv("SESSION_COOKIE", DefaultSessionCookie),
			TTL:        getDuration("SESSION_TTL", DefaultSessionTTL),
			Secure:     os.Getenv("SESSION_COOKIE_SECURE") == "true",
		},
		Content: ContentConfig{
			Dir: getenv("CONTENT_DIR", DefaultContentDir),
		},
		Billing: BillingConfig{
			WebhookSecret: os.Getenv("BILLING_WEBHOOK_SECRET"),
		},
	}
}

// DefaultGate returns the gate settings with SKILL_PASSPHRASE applied.
func DefaultGate() GateConfig {
	return GateConfig{
		Passphrase:          getenv("SKILL_PASSPHRASE", DefaultPassphrase),
		SkillURL:            DefaultSkillURL,
		LlmsTxtURL:          DefaultLlmsTxtURL,
		AIPluginURL:         DefaultAIPluginURL,
		GatedPrefixes:       append([]string(nil), DefaultGatedPrefixes...),
		JustifiedPrefixes:   append([]string(nil), DefaultJustifiedPrefixes...),
		MinRationaleLength:  DefaultMinRationaleLength,
		PermissionStates:    append([]string(nil), DefaultPermissionStates...),
		HumanFacingPrefixes: append([]string(nil), DefaultHumanFacingPrefixes...),
		AuthAwarePrefixes:   append([]string(nil), DefaultAuthAwarePrefixes...),
		ClientNavHeader:     DefaultClientNavHeader,
	}
}

// LoadGateFile overlays gate settings from a YAML file onto cfg.
// Fields absent from the file keep their current values.
func LoadGateFile(path string, cfg *GateConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading gate config: %w", err)
	}
	return LoadGateBytes(data, cfg)
}

// LoadGateBytes overlays YAML gate settings onto cfg and validates the result.
func LoadGateBytes(data []byte, cfg *GateConfig) error {
	var file struct {
		Gate GateConfig `yaml:"gate"`
	}
	file.Gate = *cfg
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing gate config: %w", err)
	}
	if err := file.Gate.Validate(); err != nil {
		return err
	}
	*cfg = file.Gate
	return nil
}

// Validate rejects gate settings that would make the gate unusable.
func (g GateConfig) Validate() error {
	if strings.TrimSpace(g.Passphrase) == "" {
		return fmt.Errorf("gate passphrase must not be empty")
	}
	if g.SkillURL == "" {
		return fmt.Errorf("gate skill_url must not be empty")
	}
	if g.MinRationaleLength < 1 {
		return fmt.Errorf("gate min_rationale_length must be positive, got %d", g.MinRationaleLength)
	}
	if len(g.PermissionStates) == 0 {
		return fmt.Errorf("gate permission_states must not be empty")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for s := range strings.SplitSeq(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
