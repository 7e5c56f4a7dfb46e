package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

func (l LogLevel) ToSlog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type LogFormat string

const (
	LogFormatPlaintext LogFormat = "plaintext"
	LogFormatJSON      LogFormat = "json"
)

type AppEnv string

const (
	AppEnvDev        AppEnv = "dev"
	AppEnvProduction AppEnv = "production"
)

type Config struct {
	App        AppConfig
	CORS       CORSConfig
	Database   DatabaseConfig
	Log        LogConfig
	Pagination PaginationConfig
	Sentry     SentryConfig
}

type AppConfig struct {
	Debug           bool
	Host            string
	Port            uint32
	Name            string
	Env             AppEnv
	Version         string
	ShutdownTimeout int32  // in seconds
	RequestTimeout  uint32 // in seconds
}

type CORSConfig struct {
	// Any origin is allowed when AllowAll is set, AllowedOrigins is ignored in that case.
	AllowAll       bool
	AllowedOrigins []string
	MaxAge         int // in seconds
}

type DatabaseConfig struct {
	URL    string
	Schema string
}

type LogConfig struct {
	Format  LogFormat
	Level   LogLevel
	Verbose bool
}

type PaginationConfig struct {
	DefaultPageSize uint
	MaxPageSize     uint
}

type SentryConfig struct {
	Enabled      bool
	DSN          string
	SampleRate   float64
	TracesRate   float64
	ProfilesRate float64
}

// Address returns the host:port combination the server should listen on.
func (c AppConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.FormatUint(uint64(c.Port), 10))
}

func setDefaults(reader *viper.Viper) {
	reader.SetDefault("app_debug", false)
	reader.SetDefault("app_host", "0.0.0.0")
	reader.SetDefault("app_port", 4001)
	reader.SetDefault("app_name", "addressd")
	reader.SetDefault("app_env", string(AppEnvProduction))
	reader.SetDefault("app_version", "dev")
	reader.SetDefault("app_shutdowntimeout", 2)
	reader.SetDefault("app_requesttimeout", 30)

	reader.SetDefault("cors_allowall", false)
	reader.SetDefault("cors_allowedorigins", []string{"http://localhost:3000"})
	reader.SetDefault("cors_maxage", 300)

	reader.SetDefault("database_url", "")
	reader.SetDefault("database_schema", "public")

	reader.SetDefault("log_format", string(LogFormatJSON))
	reader.SetDefault("log_level", string(LogLevelInfo))
	reader.SetDefault("log_verbose", false)

	reader.SetDefault("pagination_defaultpagesize", 10)
	reader.SetDefault("pagination_maxpagesize", 100)

	reader.SetDefault("sentry_enabled", false)
	reader.SetDefault("sentry_dsn", "")
	reader.SetDefault("sentry_samplerate", 1.0)
	reader.SetDefault("sentry_tracesrate", 0.0)
	reader.SetDefault("sentry_profilesrate", 0.0)
}

// Load the configuration from the specified filesystem.
// A "config.toml" file in configFS is optional, every setting has a default and can be overridden through the
// environment (e.g. APP_PORT or DATABASE_URL). The listening port can also be set with PORT.
// You can specify additional .env files to load, by default this only checks for ".env" in the
// current working directory.
func Load(configFS fs.FS, dotenvFiles ...string) (*Config, error) {
	reader := viper.NewWithOptions(viper.KeyDelimiter("_"))
	reader.SetConfigType("toml")
	setDefaults(reader)

	file, err := configFS.Open("config.toml")
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("No config.toml found, using defaults and environment")
	case err != nil:
		return nil, fmt.Errorf("could not open config.toml: %w", err)
	default:
		defer file.Close()
		if err = reader.ReadConfig(file); err != nil {
			return nil, fmt.Errorf("could not load the app configuration: %w", err)
		}
	}

	// Environment override
	err = godotenv.Load(dotenvFiles...)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("No .env file found, continuing...")
	} else if err != nil {
		return nil, fmt.Errorf(".env file found, but could not load it: %w", err)
	}
	reader.AutomaticEnv()
	if err := reader.BindEnv("app_port", "APP_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("cannot bind port environment variables: %w", err)
	}

	var config Config
	if err := reader.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("invalid config format: %w", err)
	}

	if config.App.Debug {
		slog.Warn("APP_DEBUG is turned on, do not run this mode in production!")
	}
	if config.CORS.AllowAll {
		slog.Warn("CORS_ALLOWALL is turned on, any origin can reach the API")
	}

	return &config, nil
}
