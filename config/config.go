package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Game     GameConfig     `mapstructure:"game"`
	World    WorldConfig    `mapstructure:"world"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port" validate:"min=0,max=65535"`
	Debug bool `mapstructure:"debug"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode" validate:"oneof=memory sqlite mysql"`
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn" validate:"required_if=Mode mysql"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type GameConfig struct {
	TickHz            int     `mapstructure:"tick_hz" validate:"min=1,max=240"`
	MaxDeltaMs        int     `mapstructure:"max_delta_ms" validate:"min=1"`
	SaveIntervalS     int     `mapstructure:"save_interval_s" validate:"min=0"`
	FollowupDelayMs   int     `mapstructure:"followup_delay_ms" validate:"min=0"`
	InteractionRadius float64 `mapstructure:"interaction_radius" validate:"gt=0"`
	PlayerSpeed       float64 `mapstructure:"player_speed" validate:"gt=0"`
	MaxInventory      int     `mapstructure:"max_inventory" validate:"min=1"`
	StartQuest        string  `mapstructure:"start_quest"`
	SaveKey           string  `mapstructure:"save_key" validate:"required"`
	SaveBackend       string  `mapstructure:"save_backend" validate:"oneof=db cache"`
	PlayerName        string  `mapstructure:"player_name"`
	Calling           string  `mapstructure:"calling"`
	DataDir           string  `mapstructure:"data_dir"` // optional override for the embedded JSON data
	AutoStart         bool    `mapstructure:"auto_start"`
}

// MaxDelta is the ceiling applied to every tick's delta-time.
func (g GameConfig) MaxDelta() time.Duration {
	return time.Duration(g.MaxDeltaMs) * time.Millisecond
}

// FollowupDelay is the game-time delay before a follow-up quest is offered.
func (g GameConfig) FollowupDelay() time.Duration {
	return time.Duration(g.FollowupDelayMs) * time.Millisecond
}

// SaveInterval is the game-time period of the autosave task.
func (g GameConfig) SaveInterval() time.Duration {
	return time.Duration(g.SaveIntervalS) * time.Second
}

type WorldConfig struct {
	Width        float64 `mapstructure:"width" validate:"gt=0"`
	Height       float64 `mapstructure:"height" validate:"gt=0"`
	CameraWidth  float64 `mapstructure:"camera_width" validate:"gt=0"`
	CameraHeight float64 `mapstructure:"camera_height" validate:"gt=0"`
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/game.db")
	v.SetDefault("database.mysql_max_open", 10)
	v.SetDefault("database.mysql_max_idle", 5)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("game.tick_hz", 60)
	v.SetDefault("game.max_delta_ms", 100)
	v.SetDefault("game.save_interval_s", 300)
	v.SetDefault("game.followup_delay_ms", 1000)
	v.SetDefault("game.interaction_radius", 50)
	v.SetDefault("game.player_speed", 150)
	v.SetDefault("game.max_inventory", 20)
	v.SetDefault("game.start_quest", "great_commission")
	v.SetDefault("game.save_key", "spirit-to-soul-save")
	v.SetDefault("game.save_backend", "db")
	v.SetDefault("game.player_name", "Pilgrim")
	v.SetDefault("game.calling", "disciple")
	v.SetDefault("game.auto_start", true)
	v.SetDefault("world.width", 2400)
	v.SetDefault("world.height", 1600)
	v.SetDefault("world.camera_width", 1200)
	v.SetDefault("world.camera_height", 800)
	v.SetDefault("security.rate_limit_rps", 30)
	v.SetDefault("security.rate_limit_burst", 60)
}

// Load reads config from the given YAML file path. An empty path yields the
// defaults plus any STS_* environment overrides. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("STS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without touching the
// filesystem or environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not unmarshal: %v", err))
	}
	return cfg
}

var validate = validator.New()

// Validate checks field constraints declared in struct tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
