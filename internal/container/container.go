package container

import (
	"fmt"
	"time"

	"github.com/samber/do"
	"go.uber.org/zap"
)

// Store kinds.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
)

// Event transports.
const (
	EventsRedis  = "redis"
	EventsMemory = "memory"
	EventsOff    = "off"
)

type Options struct {
	Port      int    `default:"8888"    help:"Port to listen on"                             short:"p"`
	BaseURL   string `default:""        help:"Public base URL for short links (default http://localhost:PORT)"`
	LogFormat string `default:"console" help:"Log format: json or console"`

	Store            string `default:"memory"                                               help:"Link store: memory, postgres, redis or sqlite" short:"s"`
	DatabaseURL      string `default:"postgres://localhost:5432/ghostlink?sslmode=disable" help:"PostgreSQL connection string"`
	RedisAddr        string `default:"localhost:6379"                                       help:"Redis server address"                          short:"r"`
	SQLiteDSN        string `default:"ghostlink.db"                                         help:"SQLite file or libsql:// URL"`
	Failover         bool   `default:"true"                                                 help:"Switch to an in-memory store if the link store fails"`
	TerminalCacheTTL int    `default:"300"                                                  help:"Seconds to cache expired links, 0 to disable"`
	CodeLength       int    `default:"6"                                                    help:"Starting length of generated short codes"      short:"c"`

	GeminiAPIKey  string `default:""                 help:"Gemini API key; empty uses the keyword parser only"`
	GeminiModel   string `default:"gemini-2.0-flash" help:"Gemini model used to parse expiry text"`
	GeminiTimeout int    `default:"8"                help:"Seconds to wait for Gemini before falling back"`

	Events string `default:"memory" help:"Lifecycle event transport: redis, memory or off"`

	RateLimitDisabled bool   `default:"false"  help:"Disable rate limiting"`
	RateLimitStore    string `default:"memory" help:"Rate limit counters: memory or redis"`
	RateLimitGlobal   int64  `default:"1000"   help:"Requests per minute per client across all endpoints"`
	RateLimitRead     int64  `default:"600"    help:"Read requests per minute per client"`
	RateLimitWrite    int64  `default:"120"    help:"Write requests per minute per client"`
	RateLimitCreate   int64  `default:"10"     help:"Link creations per minute per client"`
	RateLimitClick    int64  `default:"120"    help:"Clicks per minute per client"`
}

// PublicBaseURL returns the prefix short links are rendered with.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

func (o *Options) terminalCacheTTL() time.Duration {
	return time.Duration(o.TerminalCacheTTL) * time.Second
}

func (o *Options) geminiTimeout() time.Duration {
	return time.Duration(o.GeminiTimeout) * time.Second
}

// LoggerPackage provides the application logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}
