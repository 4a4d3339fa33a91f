package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// CascadeConfig bounds the location acquisition tiers.
type CascadeConfig struct {
	CachedMaxAge    time.Duration `json:"cachedMaxAge" mapstructure:"cachedMaxAge"`
	BalancedTimeout time.Duration `json:"balancedTimeout" mapstructure:"balancedTimeout"`
	LowestTimeout   time.Duration `json:"lowestTimeout" mapstructure:"lowestTimeout"`
	StaleMaxAge     time.Duration `json:"staleMaxAge" mapstructure:"staleMaxAge"`
}

// MapConfig holds the default viewport.
type MapConfig struct {
	CenterLon float64 `json:"centerLon" mapstructure:"centerLon"`
	CenterLat float64 `json:"centerLat" mapstructure:"centerLat"`
	Zoom      float64 `json:"zoom" mapstructure:"zoom"`
}

// AuthConfig points at the demo auth API.
type AuthConfig struct {
	ServerURL     string `json:"serverUrl" mapstructure:"serverUrl"`
	ExpiresInMins int    `json:"expiresInMins" mapstructure:"expiresInMins"`
}

// CredentialsConfig selects the credential store backend.
type CredentialsConfig struct {
	Backend string `json:"backend" mapstructure:"backend"` // "memory" or "database"
}

// DBConfig holds the Postgres connection used by the database credential
// backend; SQLite is the automatic fallback.
type DBConfig struct {
	Host           string `json:"host" mapstructure:"host"`
	Port           string `json:"port" mapstructure:"port"`
	Username       string `json:"username" mapstructure:"username"`
	Password       string `json:"password" mapstructure:"password"`
	Database       string `json:"database" mapstructure:"database"`
	SqliteFilePath string `json:"sqliteFilePath" mapstructure:"sqliteFilePath"`
}

// InfluxConfig holds the telemetry export target.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// GraylogConfig holds the optional GELF log target.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// RendererConfig holds the WebSocket bridge listener.
type RendererConfig struct {
	Listen string `json:"listen" mapstructure:"listen"`
}

// Load reads configuration from a JSON file in configDir and sets default
// values. A missing file leaves the defaults in place.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./trashpinlogs")

	viper.SetDefault("map.centerLon", 106.8456)
	viper.SetDefault("map.centerLat", -6.2088)
	viper.SetDefault("map.zoom", 10)

	viper.SetDefault("cascade.cachedMaxAge", "5m")
	viper.SetDefault("cascade.balancedTimeout", "5s")
	viper.SetDefault("cascade.lowestTimeout", "10s")
	viper.SetDefault("cascade.staleMaxAge", "1h")

	viper.SetDefault("auth.serverUrl", "https://dummyjson.com")
	viper.SetDefault("auth.expiresInMins", 30)

	viper.SetDefault("credentials.backend", "database")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "trashpin")
	viper.SetDefault("db.sqliteFilePath", "./trashpin.db")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "trashpin-metrics")
	viper.SetDefault("influx.bucket", "location_cascade")
	viper.SetDefault("influx.backupPath", "./trashpinlogs/influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("renderer.listen", "127.0.0.1:7345")

	viper.SetConfigName("trashpin.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound {
			return nil
		}
		return fmt.Errorf("error reading config file: %v", err)
	}
	return nil
}

// Cascade returns the cascade bounds.
func Cascade() CascadeConfig {
	return CascadeConfig{
		CachedMaxAge:    viper.GetDuration("cascade.cachedMaxAge"),
		BalancedTimeout: viper.GetDuration("cascade.balancedTimeout"),
		LowestTimeout:   viper.GetDuration("cascade.lowestTimeout"),
		StaleMaxAge:     viper.GetDuration("cascade.staleMaxAge"),
	}
}

// Map returns the default viewport settings.
func Map() MapConfig {
	return MapConfig{
		CenterLon: viper.GetFloat64("map.centerLon"),
		CenterLat: viper.GetFloat64("map.centerLat"),
		Zoom:      viper.GetFloat64("map.zoom"),
	}
}

// Auth returns the auth client settings.
func Auth() AuthConfig {
	return AuthConfig{
		ServerURL:     viper.GetString("auth.serverUrl"),
		ExpiresInMins: viper.GetInt("auth.expiresInMins"),
	}
}

// Credentials returns the credential store settings.
func Credentials() CredentialsConfig {
	return CredentialsConfig{
		Backend: viper.GetString("credentials.backend"),
	}
}

// DB returns the database settings.
func DB() DBConfig {
	return DBConfig{
		Host:           viper.GetString("db.host"),
		Port:           viper.GetString("db.port"),
		Username:       viper.GetString("db.username"),
		Password:       viper.GetString("db.password"),
		Database:       viper.GetString("db.database"),
		SqliteFilePath: viper.GetString("db.sqliteFilePath"),
	}
}

// Influx returns the telemetry settings.
func Influx() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Protocol:   viper.GetString("influx.protocol"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// Graylog returns the GELF settings.
func Graylog() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// Renderer returns the bridge listener settings.
func Renderer() RendererConfig {
	return RendererConfig{
		Listen: viper.GetString("renderer.listen"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
