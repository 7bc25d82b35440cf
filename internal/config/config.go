package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Dump     DumpConfig     `mapstructure:"dump"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	Debug    bool   `mapstructure:"debug"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// Database restricts the dump to a single schema. Empty means
	// discover every schema on the server minus the system ones.
	Database string `mapstructure:"database"`
	Charset  string `mapstructure:"charset"`
}

type DumpConfig struct {
	// Strategy picks the dump generator: "mysqldump" shells out to the
	// client utilities, "query" reads schema and rows over a direct
	// connection.
	Strategy      string `mapstructure:"strategy"`
	TempDir       string `mapstructure:"temp_dir"`
	MysqldumpPath string `mapstructure:"mysqldump_path"`
	MysqlPath     string `mapstructure:"mysql_path"`

	// CompatAuth appends --default-auth=mysql_native_password to every
	// client invocation, for servers still on the old auth plugin.
	CompatAuth bool `mapstructure:"compat_auth"`
}

type StorageConfig struct {
	Type          string      `mapstructure:"type"`
	RetentionDays int         `mapstructure:"retention_days"`
	S3            S3Config    `mapstructure:"s3"`
	Local         LocalConfig `mapstructure:"local"`
}

type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`

	// Endpoint points the client at an S3-compatible backend. When set,
	// path-style addressing is usually wanted too.
	Endpoint       string `mapstructure:"endpoint"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

type LocalConfig struct {
	Path string `mapstructure:"path"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app.name", "dbarc")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("dump.strategy", "mysqldump")
	v.SetDefault("dump.mysqldump_path", "mysqldump")
	v.SetDefault("dump.mysql_path", "mysql")
	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.retention_days", 0)

	v.SetEnvPrefix("DBARC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Username == "" {
		return fmt.Errorf("database.username is required")
	}

	switch c.Dump.Strategy {
	case "mysqldump", "query":
	default:
		return fmt.Errorf("dump.strategy must be \"mysqldump\" or \"query\", got %q", c.Dump.Strategy)
	}

	switch c.Storage.Type {
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required")
		}
		if c.Storage.S3.Region == "" && c.Storage.S3.Endpoint == "" {
			return fmt.Errorf("storage.s3.region is required unless a custom endpoint is set")
		}
	case "local":
		if c.Storage.Local.Path == "" {
			return fmt.Errorf("storage.local.path is required")
		}
	default:
		return fmt.Errorf("storage.type must be \"s3\" or \"local\", got %q", c.Storage.Type)
	}

	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("storage.retention_days must not be negative")
	}

	return nil
}
