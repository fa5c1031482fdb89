// backend-go/internal/config/config.go
package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Optimizer OptimizerConfig
	Twitter   TwitterConfig
	Media     MediaConfig
	Share     ShareConfig
	Cleanup   CleanupConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogFormat      string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled         bool
	RedisURL        string
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	ShareTTLSeconds int
}

// StorageConfig points at the S3-compatible bucket optimized memes are archived to.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

type OptimizerConfig struct {
	Endpoint       string
	APIKey         string
	APISecret      string
	TimeoutSeconds int
	MaxFetchBytes  int64
}

type TwitterConfig struct {
	ClientID       string
	ClientSecret   string
	TokenURL       string
	UploadURL      string
	TweetURL       string
	TimeoutSeconds int
}

// MediaConfig carries the upload pipeline tunables.
type MediaConfig struct {
	ChunkedThresholdBytes int
	ChunkSizeBytes        int
	PollIntervalMillis    int
	MaxPollAttempts       int
	MediaCategory         string
}

type ShareConfig struct {
	MaxConcurrent int
}

type CleanupConfig struct {
	Enabled       bool
	Schedule      string
	RetentionDays int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_LOG_FORMAT", "console")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "walletroast")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_SHARE_TTL_SECONDS", 300)
	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "walletroast-memes")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_PREFIX", "memes")
	v.SetDefault("OPTIMIZER_ENDPOINT", "https://api.kraken.io/v1/url")
	v.SetDefault("OPTIMIZER_API_KEY", "")
	v.SetDefault("OPTIMIZER_API_SECRET", "")
	v.SetDefault("OPTIMIZER_TIMEOUT_SECONDS", 30)
	v.SetDefault("OPTIMIZER_MAX_FETCH_BYTES", 15*1024*1024)
	v.SetDefault("TWITTER_CLIENT_ID", "")
	v.SetDefault("TWITTER_CLIENT_SECRET", "")
	v.SetDefault("TWITTER_TOKEN_URL", "https://api.x.com/2/oauth2/token")
	v.SetDefault("TWITTER_UPLOAD_URL", "https://upload.twitter.com/1.1/media/upload.json")
	v.SetDefault("TWITTER_TWEET_URL", "https://api.x.com/2/tweets")
	v.SetDefault("TWITTER_TIMEOUT_SECONDS", 30)
	v.SetDefault("MEDIA_CHUNKED_THRESHOLD_BYTES", 5*1024*1024)
	v.SetDefault("MEDIA_CHUNK_SIZE_BYTES", 1024*1024)
	v.SetDefault("MEDIA_POLL_INTERVAL_MS", 1000)
	v.SetDefault("MEDIA_MAX_POLL_ATTEMPTS", 5)
	v.SetDefault("MEDIA_CATEGORY", "tweet_image")
	v.SetDefault("SHARE_MAX_CONCURRENT", 8)
	v.SetDefault("CLEANUP_ENABLED", false)
	v.SetDefault("CLEANUP_SCHEDULE", "0 3 * * *")
	v.SetDefault("CLEANUP_RETENTION_DAYS", 30)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			LogFormat:      v.GetString("SERVER_LOG_FORMAT"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("DB_ENABLED"),
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:         v.GetBool("CACHE_ENABLED"),
			RedisURL:        v.GetString("REDIS_URL"),
			RedisHost:       v.GetString("REDIS_HOST"),
			RedisPort:       v.GetString("REDIS_PORT"),
			RedisPassword:   v.GetString("REDIS_PASSWORD"),
			RedisDB:         v.GetInt("REDIS_DB"),
			ShareTTLSeconds: v.GetInt("CACHE_SHARE_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			Prefix:    v.GetString("STORAGE_PREFIX"),
		},
		Optimizer: OptimizerConfig{
			Endpoint:       v.GetString("OPTIMIZER_ENDPOINT"),
			APIKey:         v.GetString("OPTIMIZER_API_KEY"),
			APISecret:      v.GetString("OPTIMIZER_API_SECRET"),
			TimeoutSeconds: v.GetInt("OPTIMIZER_TIMEOUT_SECONDS"),
			MaxFetchBytes:  v.GetInt64("OPTIMIZER_MAX_FETCH_BYTES"),
		},
		Twitter: TwitterConfig{
			ClientID:       v.GetString("TWITTER_CLIENT_ID"),
			ClientSecret:   v.GetString("TWITTER_CLIENT_SECRET"),
			TokenURL:       v.GetString("TWITTER_TOKEN_URL"),
			UploadURL:      v.GetString("TWITTER_UPLOAD_URL"),
			TweetURL:       v.GetString("TWITTER_TWEET_URL"),
			TimeoutSeconds: v.GetInt("TWITTER_TIMEOUT_SECONDS"),
		},
		Media: MediaConfig{
			ChunkedThresholdBytes: v.GetInt("MEDIA_CHUNKED_THRESHOLD_BYTES"),
			ChunkSizeBytes:        v.GetInt("MEDIA_CHUNK_SIZE_BYTES"),
			PollIntervalMillis:    v.GetInt("MEDIA_POLL_INTERVAL_MS"),
			MaxPollAttempts:       v.GetInt("MEDIA_MAX_POLL_ATTEMPTS"),
			MediaCategory:         v.GetString("MEDIA_CATEGORY"),
		},
		Share: ShareConfig{
			MaxConcurrent: v.GetInt("SHARE_MAX_CONCURRENT"),
		},
		Cleanup: CleanupConfig{
			Enabled:       v.GetBool("CLEANUP_ENABLED"),
			Schedule:      v.GetString("CLEANUP_SCHEDULE"),
			RetentionDays: v.GetInt("CLEANUP_RETENTION_DAYS"),
		},
	}
}

// PollInterval converts the configured milliseconds to a duration.
func (m MediaConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalMillis) * time.Millisecond
}

// Retention is the age after which share records are pruned.
func (c CleanupConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
