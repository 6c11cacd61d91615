package backupmanager

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/ermos/dotenv"
	"github.com/go-playground/validator/v10"
	"github.com/gravitational/trace"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables overriding the config file.
const EnvPrefix = "BACKUP_MANAGER_"

const (
	DriverMysql    = "mysql"
	DriverPostgres = "pgsql"
)

var defaultPorts = map[string]int{
	DriverMysql:    3306,
	DriverPostgres: 5432,
}

// Config is the complete backup manager configuration.
type Config struct {
	Storage  map[string]StorageConfig `koanf:"storage"`
	Database DatabaseSection          `koanf:"database"`
}

// DatabaseSection holds the named database connections.
type DatabaseSection struct {
	Connections map[string]ConnectionConfig `koanf:"connections"`
}

// StorageConfig describes one named storage destination.
type StorageConfig struct {
	Type            string `koanf:"type" validate:"required"`
	Root            string `koanf:"root"`
	Key             string `koanf:"key"`
	Secret          string `koanf:"secret"`
	Region          string `koanf:"region"`
	Bucket          string `koanf:"bucket" validate:"required_if=Type awss3,required_if=Type gcs"`
	Endpoint        string `koanf:"endpoint"`
	UsePathStyle    bool   `koanf:"use_path_style"`
	CredentialsFile string `koanf:"credentials_file"`
}

// Value returns the configuration value stored under key.
func (c StorageConfig) Value(key string) string {
	switch key {
	case "type":
		return c.Type
	case "root":
		return c.Root
	case "key":
		return c.Key
	case "region":
		return c.Region
	case "bucket":
		return c.Bucket
	case "endpoint":
		return c.Endpoint
	case "credentials_file":
		return c.CredentialsFile
	}
	return ""
}

// ConnectionConfig describes one named database connection.
type ConnectionConfig struct {
	Driver   string `koanf:"driver"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
}

// DatabaseConfig is a connection accepted by one of the supported drivers,
// with defaults applied.
type DatabaseConfig struct {
	Type     string `validate:"oneof=mysql pgsql"`
	Host     string `validate:"required"`
	Port     int    `validate:"gt=0"`
	User     string
	Pass     string
	Database string `validate:"required"`
}

// Databases maps the configured connections to database configs. Connections using
// a driver other than mysql or pgsql are left out.
func (c *Config) Databases() map[string]DatabaseConfig {
	databases := make(map[string]DatabaseConfig, len(c.Database.Connections))
	for name, conn := range c.Database.Connections {
		port, supported := defaultPorts[conn.Driver]
		if !supported {
			continue
		}
		if conn.Port != 0 {
			port = conn.Port
		}

		databases[name] = DatabaseConfig{
			Type:     conn.Driver,
			Host:     conn.Host,
			Port:     port,
			User:     conn.Username,
			Pass:     conn.Password,
			Database: conn.Database,
		}
	}
	return databases
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	for name, storage := range c.Storage {
		if err := v.Struct(storage); err != nil {
			return trace.BadParameter("invalid storage %q: %v", name, err)
		}
	}

	for name, database := range c.Databases() {
		if err := v.Struct(database); err != nil {
			return trace.BadParameter("invalid database connection %q: %v", name, err)
		}
	}

	return nil
}

// LoadConfig reads the configuration. Sources are applied in order, later ones
// overriding earlier ones:
//  1. the YAML file at configPath, if it exists
//  2. environment variables prefixed with EnvPrefix, after loading envFile
//     into the process environment when it exists
func LoadConfig(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if err := dotenv.Parse(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, trace.Wrap(err, "failed to load env file %q", envFile)
		}
	}

	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, trace.Wrap(err, "failed to load config file %q", configPath)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, trace.Wrap(err, "failed to stat config file %q", configPath)
		}
	}

	// BACKUP_MANAGER_STORAGE_S3_SECRET -> storage.s3.secret
	envTransformer := func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "_", ".")
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformer), nil); err != nil {
		return nil, trace.Wrap(err, "failed to load environment variables")
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, trace.Wrap(err, "failed to decode configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, trace.Wrap(err)
	}

	return cfg, nil
}
