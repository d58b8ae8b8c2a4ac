package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/logger"
)

type Config struct {
	Server   ServerConfig        `mapstructure:"server"`
	Database storage.MySQLConfig `mapstructure:"database"`
	Cache    storage.CacheConfig `mapstructure:"cache"`
	Log      logger.Config       `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr" default:":8080"`
	GRPCAddr        string        `mapstructure:"grpc_addr" default:":50051"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"5s"`
}

// Load reads <path>/.env if present, then environment variables such as
// SERVER_HTTP_ADDR or CACHE_DRIVER over the tag defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Overload(filepath.Join(path, ".env"))

	v := viper.New()
	bindValues(v, Config{}, "")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Driver {
	case storage.CacheDriverRedis, storage.CacheDriverMemory:
	default:
		return fmt.Errorf("cache.driver: unknown driver %q", c.Cache.Driver)
	}
	if c.Database.Timeout < 0 || c.Cache.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// bindValues registers every leaf key with its `default` tag so AutomaticEnv
// can see it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
