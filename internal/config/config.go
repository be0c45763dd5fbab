package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/roboteqbms/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName          = "roboteqbms"
	DefaultEnvPrefix = "ROBOTEQBMS"
	DefaultLogLevel  = "info"

	defaultPort              = "/dev/ttyACM0"
	defaultBaud              = 115200
	defaultReadTimeout       = 100 * time.Millisecond
	defaultInterval          = time.Second
	defaultReconnectInterval = 5 * time.Second
	defaultRedisAddr         = "localhost:6379"
	defaultRedisPrefix       = "bms"
	defaultMetricsDBPath     = "/var/lib/roboteqbms/metrics.db"
	defaultBatchSize         = 10
	defaultBatchTimeout      = 30 * time.Second
)

type Config struct {
	Port              string        `mapstructure:"port"`
	Baud              int           `mapstructure:"baud"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	Interval          time.Duration `mapstructure:"interval"`
	Reconnect         bool          `mapstructure:"reconnect"`
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval"`
	LogLevel          string        `mapstructure:"log_level"`
	Redis             RedisConfig   `mapstructure:"redis"`
	Metrics           MetricsConfig `mapstructure:"metrics"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	Prefix   string `mapstructure:"prefix"`
}

type MetricsConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	DBPath       string        `mapstructure:"db_path"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"port":               "port",
	"baud":               "baud",
	"read-timeout":       "read_timeout",
	"interval":           "interval",
	"reconnect":          "reconnect",
	"reconnect-interval": "reconnect_interval",
	"log-level":          "log_level",
	"redis":              "redis.enabled",
	"redis-addr":         "redis.addr",
	"redis-prefix":       "redis.prefix",
	"metrics":            "metrics.enabled",
	"metrics-db":         "metrics.db_path",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("baud", defaultBaud)
	v.SetDefault("read_timeout", defaultReadTimeout)
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("reconnect", true)
	v.SetDefault("reconnect_interval", defaultReconnectInterval)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", defaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.prefix", defaultRedisPrefix)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.db_path", defaultMetricsDBPath)
	v.SetDefault("metrics.batch_size", defaultBatchSize)
	v.SetDefault("metrics.batch_timeout", defaultBatchTimeout)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)

	fs.String("config", "", "Path to the TOML configuration file")
	fs.String("port", defaultPort, "Serial port of the BMS")
	fs.Int("baud", defaultBaud, "Serial baud rate")
	fs.Duration("read-timeout", defaultReadTimeout, "Read timeout for one response line")
	fs.Duration("interval", defaultInterval, "Interval between poll cycles")
	fs.Bool("reconnect", true, "Reopen the serial port while in failure state")
	fs.Duration("reconnect-interval", defaultReconnectInterval, "Minimum time between reopen attempts")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.Bool("redis", false, "Publish telemetry to Redis")
	fs.String("redis-addr", defaultRedisAddr, "Redis address")
	fs.String("redis-prefix", defaultRedisPrefix, "Key and channel prefix in Redis")
	fs.Bool("metrics", false, "Record cycle history to SQLite")
	fs.String("metrics-db", defaultMetricsDBPath, "Path to the metrics database")

	return fs
}

// Load reads configuration from defaults, config file, environment and flags,
// in increasing order of precedence, and validates the result.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		envPrefix: DefaultEnvPrefix,
		args:      os.Args[1:],
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, fs, o); err != nil {
		return nil, err
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func readConfigFile(v *viper.Viper, fs *pflag.FlagSet, o *options) error {
	errFactory := errors.New()

	path := o.configPath
	if path == "" {
		path, _ = fs.GetString("config")
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath("/etc")
		v.AddConfigPath("$HOME/.config/" + AppName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Port == "" {
		return errFactory.Wrap(errors.ErrInvalidConfig, &validationError{"port", c.Port, "must not be empty"})
	}
	if c.Baud <= 0 {
		return errFactory.Wrap(errors.ErrInvalidConfig, &validationError{"baud", c.Baud, "must be positive"})
	}
	if c.Interval <= 0 {
		return errFactory.Wrap(errors.ErrInvalidInterval, &validationError{"interval", c.Interval, "must be positive"})
	}
	if c.ReadTimeout <= 0 || c.ReadTimeout >= c.Interval {
		return errFactory.Wrap(errors.ErrInvalidInterval,
			&validationError{"read_timeout", c.ReadTimeout, "must be positive and shorter than interval"})
	}
	if c.Reconnect && c.ReconnectInterval <= 0 {
		return errFactory.Wrap(errors.ErrInvalidInterval,
			&validationError{"reconnect_interval", c.ReconnectInterval, "must be positive"})
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.Wrap(errors.ErrInvalidLogLevel, &validationError{"log_level", c.LogLevel, "unknown level"})
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errFactory.Wrap(errors.ErrMissingConfig, &validationError{"redis.addr", c.Redis.Addr, "required when redis is enabled"})
	}
	if c.Metrics.Enabled && c.Metrics.DBPath == "" {
		return errFactory.Wrap(errors.ErrMissingConfig, &validationError{"metrics.db_path", c.Metrics.DBPath, "required when metrics is enabled"})
	}

	return nil
}
