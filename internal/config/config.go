package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Media   MediaConfig   `mapstructure:"media"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Session SessionConfig `mapstructure:"session"`
	List    ListConfig    `mapstructure:"list"`
	Janitor JanitorConfig `mapstructure:"janitor"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port      string          `mapstructure:"port"`
	BaseURL   string          `mapstructure:"baseURL"`
	TLS       TLSConfig       `mapstructure:"tls"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// RateLimitConfig caps requests per client IP. Zero requests disables it.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// StorageConfig points at the directory that holds metadata, pages and media.
type StorageConfig struct {
	DataDir string `mapstructure:"dataDir"`
}

// MetadataPath is the single JSON document holding every article record.
func (s StorageConfig) MetadataPath() string {
	return filepath.Join(s.DataDir, "metadata.json")
}

// PagesDir holds one Markdown file per article.
func (s StorageConfig) PagesDir() string {
	return filepath.Join(s.DataDir, "pages")
}

// FilesDir holds one media directory per article.
func (s StorageConfig) FilesDir() string {
	return filepath.Join(s.DataDir, "pages", "files")
}

// AdminConfig holds the shared admin secret.
type AdminConfig struct {
	Password string `mapstructure:"password"`
}

// MediaConfig holds the ingestion pipeline settings.
type MediaConfig struct {
	FFmpegPath       string        `mapstructure:"ffmpegPath"`
	ScratchDir       string        `mapstructure:"scratchDir"`
	TranscodeTimeout time.Duration `mapstructure:"transcodeTimeout"` // 0 disables the timeout
	CacheTTL         time.Duration `mapstructure:"cacheTTL"`
	MaxUploadMB      int64         `mapstructure:"maxUploadMB"`
}

// CacheConfig holds the sqlite state database settings.
type CacheConfig struct {
	FilePath string `mapstructure:"filePath"`
}

// SessionConfig holds admin session settings.
type SessionConfig struct {
	Lifetime int  `mapstructure:"lifetime"` // hours
	Secure   bool `mapstructure:"secure"`
}

// ListConfig holds listing settings.
type ListConfig struct {
	PageSize  int    `mapstructure:"pageSize"`
	Collation string `mapstructure:"collation"` // BCP 47 tag used to sort titles and tags
}

// JanitorConfig holds the periodic cleanup settings.
type JanitorConfig struct {
	Schedule      string        `mapstructure:"schedule"`
	ScratchMaxAge time.Duration `mapstructure:"scratchMaxAge"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/go-blog-app/")
	v.AddConfigPath("$HOME/.go-blog-app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.baseURL", "http://localhost:3000")
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.rateLimit.requests", 1000)
	v.SetDefault("server.rateLimit.window", 10*time.Minute)
	v.SetDefault("storage.dataDir", "lib")
	// Bound explicitly so AutomaticEnv picks it up during Unmarshal.
	v.SetDefault("admin.password", "")
	v.SetDefault("media.ffmpegPath", "ffmpeg")
	v.SetDefault("media.scratchDir", os.TempDir())
	v.SetDefault("media.transcodeTimeout", time.Duration(0))
	v.SetDefault("media.cacheTTL", 24*time.Hour)
	v.SetDefault("media.maxUploadMB", 50)
	v.SetDefault("cache.filePath", "state.db")
	v.SetDefault("session.lifetime", 24)
	v.SetDefault("session.secure", false)
	v.SetDefault("list.pageSize", 20)
	v.SetDefault("list.collation", "ja")
	v.SetDefault("janitor.schedule", "@every 1h")
	v.SetDefault("janitor.scratchMaxAge", 6*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
