package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Records holds the connection details of the vitamins/medications API.
	Records RecordsConfig `mapstructure:",squash"`

	// Scan holds the calendar and caching settings of the expiry scanner.
	Scan ScanConfig `mapstructure:",squash"`

	// Reminders holds the daily digest job settings.
	Reminders ReminderConfig `mapstructure:",squash"`

	// Proxy holds the optional outbound proxy for the records API.
	Proxy ProxyConfig `mapstructure:",squash"`
}

// RecordsConfig holds the settings of the remote records service.
type RecordsConfig struct {
	// URL is the base URL of the records API (e.g., https://api.example.com/api).
	URL string `mapstructure:"RECORDS_API_URL" required:"true"`
	// Token is sent as a bearer token when set.
	Token string `mapstructure:"RECORDS_API_TOKEN"`
	// Timeout is the per-request timeout, as a Go duration string.
	Timeout string `mapstructure:"RECORDS_API_TIMEOUT" default:"10s"`
}

// ScanConfig holds the expiry scanner settings.
type ScanConfig struct {
	// Timezone is the IANA zone whose calendar days decide "today" and "tomorrow".
	Timezone string `mapstructure:"SCAN_TIMEZONE" default:"Local"`
	// RedisURL enables the notice cache when set.
	RedisURL string `mapstructure:"REDIS_URL"`
	// CacheTTL is how long a scan result stays cached.
	CacheTTL string `mapstructure:"NOTICE_CACHE_TTL" default:"5m"`
}

// ReminderConfig holds the reminder digest settings.
type ReminderConfig struct {
	// Schedule is a five-field cron expression.
	Schedule string `mapstructure:"REMINDER_SCHEDULE" default:"0 8 * * *"`
	// UserIDs is a comma-separated list of watched users.
	UserIDs string `mapstructure:"REMINDER_USER_IDS"`
}

// ProxyConfig holds outbound proxy details.
type ProxyConfig struct {
	Enabled  bool   `mapstructure:"PROXY_ENABLED" default:"false"`
	Hostname string `mapstructure:"PROXY_HOST"`
	Port     int    `mapstructure:"PROXY_PORT"`
	Username string `mapstructure:"PROXY_USERNAME"`
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// RequestTimeout returns the parsed records API timeout.
func (c RecordsConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// Location returns the time zone used for calendar-day comparisons.
func (c ScanConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// TTL returns the parsed notice cache lifetime.
func (c ScanConfig) TTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// WatchedUsers splits the comma-separated user list, dropping blanks.
func (c ReminderConfig) WatchedUsers() []string {
	var users []string
	for _, id := range strings.Split(c.UserIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			users = append(users, id)
		}
	}
	return users
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if err := validateValues(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("failed to bind %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// validateValues rejects settings that parse as strings but are unusable.
func validateValues(config *AppConfig) error {
	if _, err := time.ParseDuration(config.Records.Timeout); err != nil {
		return fmt.Errorf("invalid configuration RECORDS_API_TIMEOUT: %w", err)
	}
	if _, err := time.ParseDuration(config.Scan.CacheTTL); err != nil {
		return fmt.Errorf("invalid configuration NOTICE_CACHE_TTL: %w", err)
	}
	if _, err := time.LoadLocation(config.Scan.Timezone); err != nil {
		return fmt.Errorf("invalid configuration SCAN_TIMEZONE: %w", err)
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
