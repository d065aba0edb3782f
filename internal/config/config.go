// Package config loads the register configuration from defaults, an
// optional YAML file and KASIR_* environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "KASIR"

// Config is the full register configuration.
type Config struct {
	Local        Local        `mapstructure:"local"`
	Remote       Remote       `mapstructure:"remote"`
	Connectivity Connectivity `mapstructure:"connectivity"`
	Sync         Sync         `mapstructure:"sync"`
	HTTP         HTTP         `mapstructure:"http"`
	Locale       string       `mapstructure:"locale" validate:"oneof=id en"`
	Cashier      Cashier      `mapstructure:"cashier"`
}

// Local configures the offline queue.
type Local struct {
	Path string `mapstructure:"path" validate:"required"`
}

// Remote configures the remote data service.
type Remote struct {
	Driver  string        `mapstructure:"driver" validate:"oneof=pgx sqlite3"`
	DSN     string        `mapstructure:"dsn"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Connectivity configures the reachability probe.
type Connectivity struct {
	ProbeAddr     string        `mapstructure:"probe_addr" validate:"omitempty,hostname_port"`
	ProbeInterval time.Duration `mapstructure:"probe_interval" validate:"gt=0"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout" validate:"gt=0"`
}

// Sync configures the background sync loop.
type Sync struct {
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
}

// HTTP configures the API server.
type HTTP struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// Cashier is the default actor for checkouts that do not name one.
type Cashier struct {
	ID string `mapstructure:"id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("local.path", "kasir-queue.db")
	v.SetDefault("remote.driver", "pgx")
	v.SetDefault("remote.dsn", "")
	v.SetDefault("remote.timeout", 10*time.Second)
	v.SetDefault("connectivity.probe_addr", "")
	v.SetDefault("connectivity.probe_interval", 5*time.Second)
	v.SetDefault("connectivity.probe_timeout", 2*time.Second)
	v.SetDefault("sync.interval", 30*time.Second)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("locale", "id")
	v.SetDefault("cashier.id", "")
}

// New returns a viper instance with defaults and environment binding.
// Callers may bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv exports the variables in each file that are not already set in
// the environment. Missing files are skipped. With no arguments it reads
// ".env" from the working directory.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the optional config file into v and decodes and validates the
// result. An empty path skips the file.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and returns one error naming every
// offending key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fieldKey(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// fieldKey turns "Config.Remote.Driver" into "remote.driver".
func fieldKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}
