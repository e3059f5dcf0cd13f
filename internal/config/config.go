package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Telegram struct {
		Enabled     bool
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
		Timeout     int
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr     string
		APIToken string `mapstructure:"api_token"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN        string
		Migrations string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Access struct {
		DefaultFreeDays int `mapstructure:"default_free_days"`
	} `mapstructure:"access"`

	Scheduler struct {
		Enabled      bool
		LatePaySpec  string        `mapstructure:"late_pay_spec"`
		ReminderSpec string        `mapstructure:"reminder_spec"`
		ReminderDays int           `mapstructure:"reminder_days"`
		JobTimeout   time.Duration `mapstructure:"job_timeout"`
	} `mapstructure:"scheduler"`
}

// Load reads the YAML file at path. Values from a .env file in the working
// directory and APP_* environment variables override it, e.g.
// APP_POSTGRES_DSN or APP_TELEGRAM_TOKEN.
func Load(path string) (Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Asia/Colombo")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.api_token", "")
	v.SetDefault("postgres.migrations", "migrations")
	v.SetDefault("telegram.timeout", 30)
	v.SetDefault("access.default_free_days", 7)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.late_pay_spec", "5 0 * * *")
	v.SetDefault("scheduler.reminder_spec", "0 9 * * *")
	v.SetDefault("scheduler.reminder_days", 2)
	v.SetDefault("scheduler.job_timeout", time.Minute)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Postgres.DSN == "" {
		return c, errors.New("config: postgres.dsn is required")
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return c, errors.New("config: telegram.token is required when telegram is enabled")
	}
	return c, nil
}

func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.App.Timezone)
}
