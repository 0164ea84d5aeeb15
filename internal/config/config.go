package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

type PinataConfig struct {
	JWT     string `mapstructure:"jwt"`
	BaseURL string `mapstructure:"base_url"`
	Gateway string `mapstructure:"gateway"`
}

type AIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type UploadConfig struct {
	Dir       string `mapstructure:"dir"`
	MaxSizeMB int64  `mapstructure:"max_size_mb"`
}

type ContractConfig struct {
	DeploymentFile string `mapstructure:"deployment_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Pinata   PinataConfig   `mapstructure:"pinata"`
	AI       AIConfig       `mapstructure:"ai"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Contract ContractConfig `mapstructure:"contract"`
	Log      LogConfig      `mapstructure:"log"`
}

// TokenTTL returns the configured session token lifetime.
// Login sessions default to 7 days when the config omits it.
func (c *Config) TokenTTL() time.Duration {
	hours := c.JWT.ExpireHours
	if hours <= 0 {
		hours = 7 * 24
	}
	return time.Duration(hours) * time.Hour
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from the given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. SAH_SERVER_PORT=9000
		v.SetEnvPrefix("SAH") // student ai hub
		v.AutomaticEnv()

		setDefaults(v)

		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 5001)
	v.SetDefault("jwt.issuer", "student-ai-hub")
	v.SetDefault("jwt.expire_hours", 168)
	v.SetDefault("cors.origins", []string{"http://localhost:3000"})
	v.SetDefault("pinata.base_url", "https://api.pinata.cloud")
	v.SetDefault("pinata.gateway", "https://gateway.pinata.cloud/ipfs")
	v.SetDefault("ai.base_url", "http://localhost:8000")
	v.SetDefault("ai.timeout_seconds", 90)
	v.SetDefault("upload.dir", "data/uploads")
	v.SetDefault("upload.max_size_mb", 50)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
