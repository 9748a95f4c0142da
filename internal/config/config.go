package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StockScope/internal/calculator"
	"StockScope/internal/classifier"
	"StockScope/internal/features"
	"StockScope/internal/model"
	"StockScope/internal/pipeline"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Model struct {
		ShortWindow  int      `yaml:"short_window" default:"20" validate:"gte=2"`
		LongWindow   int      `yaml:"long_window" default:"50" validate:"gtefield=ShortWindow"`
		RSIWindow    int      `yaml:"rsi_window" default:"14" validate:"gte=2"`
		RSIMethod    string   `yaml:"rsi_method" default:"simple" validate:"oneof=simple wilder"`
		MACDFast     int      `yaml:"macd_fast" default:"12" validate:"gte=1"`
		MACDSlow     int      `yaml:"macd_slow" default:"26" validate:"gtefield=MACDFast"`
		EnsembleSize int      `yaml:"ensemble_size" default:"10" validate:"gte=1"`
		TestFraction float64  `yaml:"test_fraction" default:"0.2" validate:"gt=0,lt=1"`
		RandomSeed   int64    `yaml:"random_seed" default:"42"`
		MaxDepth     int      `yaml:"max_depth" validate:"gte=0"`
		Features     []string `yaml:"features"`
		LookbackDays int      `yaml:"lookback_days" default:"365" validate:"gte=1"`
		Interval     string   `yaml:"interval" default:"1d" validate:"oneof=1d 1wk"`
	} `yaml:"model"`
	DataSource struct {
		Name           string        `yaml:"name" default:"yahoo" validate:"oneof=yahoo twelvedata mock"`
		TwelveAPIKey   string        `yaml:"twelvedata_api_key"`
		Timeout        time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
		RequestsPerSec float64       `yaml:"requests_per_sec" default:"2" validate:"gt=0"`
		MaxRetries     int           `yaml:"max_retries" default:"3" validate:"gte=0"`
		MoversCount    int           `yaml:"movers_count" default:"10" validate:"gte=1,lte=100"`
	} `yaml:"data_source"`
	Cache struct {
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis none"`
		TTL     time.Duration `yaml:"ttl" default:"15m" validate:"gte=0"`
		MaxSize int           `yaml:"max_size" default:"500" validate:"gte=1"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db" validate:"gte=0"`
			Prefix   string `yaml:"prefix" default:"stockscope"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Server struct {
		Addr            string        `yaml:"addr" default:":8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
		// Extra chats allowed to send bot commands; reports still go to ChatID only.
		AllowedChats []int64 `yaml:"allowed_chats"`
	} `yaml:"telegram"`
	Schedule struct {
		WatchCron      string   `yaml:"watch_cron" default:"0 30 22 * * 1-5"`
		MoversCron     string   `yaml:"movers_cron" default:"0 0 23 * * 1-5"`
		MoversCategory string   `yaml:"movers_category" default:"gainers"`
		Watchlist      []string `yaml:"watchlist"`
	} `yaml:"schedule"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

var validate = validator.New()

// Load starts from the defaults, decodes the YAML file at path over them, then applies .env
// and environment overrides. Keys present in the file or environment win even when zero.
// A missing file is not an error; the configuration is validated before it is returned.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Environment variable overrides
func (c *Config) applyEnv() error {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TWELVE_API_KEY":     &c.DataSource.TwelveAPIKey,
		"DATA_SOURCE":        &c.DataSource.Name,
		"HTTPS_PROXY":        &c.Proxy,
		"CACHE_BACKEND":      &c.Cache.Backend,
		"REDIS_ADDR":         &c.Cache.Redis.Addr,
		"REDIS_PASSWORD":     &c.Cache.Redis.Password,
		"SERVER_ADDR":        &c.Server.Addr,
		"CRON_WATCH":         &c.Schedule.WatchCron,
		"CRON_MOVERS":        &c.Schedule.MoversCron,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v := os.Getenv("RANDOM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("RANDOM_SEED: %w", err)
		}
		c.Model.RandomSeed = seed
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Schedule.Watchlist = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks field constraints plus the values only the domain packages can judge.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := features.ParseList(c.Model.Features); err != nil {
		return fmt.Errorf("invalid config: model.features: %w", err)
	}
	if _, err := model.ParseCategory(c.Schedule.MoversCategory); err != nil {
		return fmt.Errorf("invalid config: schedule.movers_category: %w", err)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "gtefield":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt", "gte", "lt", "lte":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// RequireTelegram checks the bot settings needed by the watch command.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

// Pipeline maps the model section onto the pipeline stages.
func (c *Config) Pipeline() (pipeline.Config, error) {
	feats, err := features.ParseList(c.Model.Features)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		Indicators: calculator.Options{
			ShortWindow: c.Model.ShortWindow,
			LongWindow:  c.Model.LongWindow,
			RSIWindow:   c.Model.RSIWindow,
			RSIMethod:   calculator.RSIMethod(c.Model.RSIMethod),
			MACDFast:    c.Model.MACDFast,
			MACDSlow:    c.Model.MACDSlow,
		},
		Features: feats,
		Classifier: classifier.Config{
			Trees:           c.Model.EnsembleSize,
			TestFraction:    c.Model.TestFraction,
			Seed:            c.Model.RandomSeed,
			MaxDepth:        c.Model.MaxDepth,
			MinSamplesSplit: 2,
		},
	}, nil
}

// Range returns the default lookback window ending today.
func (c *Config) Range() model.Range {
	r := model.LastDays(c.Model.LookbackDays)
	r.Interval = model.Interval(c.Model.Interval)
	return r
}

// MoversCategory parses the scheduled screen.
func (c *Config) MoversCategory() model.Category {
	cat, err := model.ParseCategory(c.Schedule.MoversCategory)
	if err != nil {
		return model.CategoryTopGainers
	}
	return cat
}
