package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CAMPUSFOOD"

type Config struct {
	Environment string   `mapstructure:"environment"`
	Logging     Logging  `mapstructure:"logging"`
	Server      Server   `mapstructure:"server"`
	DB          Database `mapstructure:"database"`
	RMQ         RabbitMQ `mapstructure:"rabbitmq"`
	Redis       Redis    `mapstructure:"redis"`
	Auth        Auth     `mapstructure:"auth"`
	Orders      Orders   `mapstructure:"orders"`

	Notifications Notifications `mapstructure:"notifications"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type Server struct {
	OrderPort       int           `mapstructure:"order_port"`
	TrackingPort    int           `mapstructure:"tracking_port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Database struct {
	// Driver is either "postgres" or "sqlite".
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`

	SQLitePath string `mapstructure:"sqlite_path"`
}

type RabbitMQ struct {
	Enabled  bool   `mapstructure:"enabled"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	VHost    string `mapstructure:"vhost"`
	Exchange string `mapstructure:"exchange"`
}

type Redis struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CartTTL  time.Duration `mapstructure:"cart_ttl"`
}

type Auth struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	AdminUsername     string        `mapstructure:"admin_username"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
}

type Orders struct {
	// VerifyTotal rejects orders whose total differs from the sum of their lines.
	VerifyTotal bool `mapstructure:"verify_total"`
}

type Notifications struct {
	Queue              string `mapstructure:"queue"`
	Prefetch           int    `mapstructure:"prefetch"`
	DeadLetterExchange string `mapstructure:"dead_letter_exchange"`
	Language           string `mapstructure:"language"`
	Currency           string `mapstructure:"currency"`
}

// LoadConfig reads the yaml file at path (optional) and applies CAMPUSFOOD_* overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("logging.level", "INFO")

	v.SetDefault("server.order_port", 3000)
	v.SetDefault("server.tracking_port", 3002)
	v.SetDefault("server.request_timeout", "20s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "campusfood")
	v.SetDefault("database.password", "campusfood")
	v.SetDefault("database.database", "campusfood")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.sqlite_path", "campusfood.db")

	v.SetDefault("rabbitmq.enabled", true)
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", "5672")
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.vhost", "")
	v.SetDefault("rabbitmq.exchange", "order_events")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cart_ttl", "72h")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password_hash", "")

	v.SetDefault("orders.verify_total", true)

	v.SetDefault("notifications.queue", "notifications")
	v.SetDefault("notifications.prefetch", 10)
	v.SetDefault("notifications.dead_letter_exchange", "")
	v.SetDefault("notifications.language", "en")
	v.SetDefault("notifications.currency", "NGN")
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite: %q", c.DB.Driver)
	}
	if c.Server.OrderPort <= 0 || c.Server.OrderPort >= 65536 {
		return fmt.Errorf("server.order_port must be in [1: 65,535]: %d", c.Server.OrderPort)
	}
	if c.Server.TrackingPort <= 0 || c.Server.TrackingPort >= 65536 {
		return fmt.Errorf("server.tracking_port must be in [1: 65,535]: %d", c.Server.TrackingPort)
	}
	return nil
}

// DSN builds the postgres connection string.
func (d Database) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Database,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// URL builds the amqp connection string.
func (r RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s", r.User, r.Password, r.Host, r.Port, r.VHost)
}
