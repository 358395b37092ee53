package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/korthochain/kvm/pkg/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPort           = 55555
	DefaultMaxConnections = 64
	DefaultPipelineDepth  = 16
	DefaultMaxFrameSize   = 64 << 20
)

type CfgInfo struct {
	ServerCfg  *ServerConfig  `mapstructure:"server"`
	StoreCfg   *StoreConfig   `mapstructure:"store"`
	LimiterCfg *LimiterConfig `mapstructure:"limiter"`
	StatusCfg  *StatusConfig  `mapstructure:"status"`
	LogCfg     *logger.Config `mapstructure:"log"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	MaxConnections int           `mapstructure:"maxconnections"`
	MaxFrameSize   uint32        `mapstructure:"maxframesize"`
	PipelineDepth  int           `mapstructure:"pipelinedepth"`
	IdleTimeout    time.Duration `mapstructure:"idletimeout"`
	WriteTimeout   time.Duration `mapstructure:"writetimeout"`
}

type StoreConfig struct {
	Engine string `mapstructure:"engine"`
}

type LimiterConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Rate      float64  `mapstructure:"rate"`
	Burst     int      `mapstructure:"burst"`
	WhiteList []string `mapstructure:"whitelist"`
}

type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// Address is the host:port the server listens on.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"port":            "server.port",
	"host":            "server.host",
	"max-connections": "server.maxconnections",
	"engine":          "store.engine",
	"status":          "status.enabled",
	"status-address":  "status.address",
	"log-level":       "log.level",
	"log-file":        "log.filename",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.maxconnections", DefaultMaxConnections)
	v.SetDefault("server.maxframesize", DefaultMaxFrameSize)
	v.SetDefault("server.pipelinedepth", DefaultPipelineDepth)
	v.SetDefault("server.idletimeout", time.Duration(0))
	v.SetDefault("server.writetimeout", time.Duration(0))

	v.SetDefault("store.engine", "hash")

	v.SetDefault("limiter.enabled", true)
	v.SetDefault("limiter.rate", 50)
	v.SetDefault("limiter.burst", 100)
	v.SetDefault("limiter.whitelist", []string{"127.0.0.1"})

	v.SetDefault("status.enabled", false)
	v.SetDefault("status.address", "127.0.0.1:55556")

	lc := logger.DefaultConfig()
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.filename", lc.FileName)
	v.SetDefault("log.maxsize", lc.MaxSize)
	v.SetDefault("log.maxage", lc.MaxAge)
	v.SetDefault("log.maxbackups", lc.MaxBackups)
	v.SetDefault("log.compress", lc.Compress)
	v.SetDefault("log.console", lc.Console)
}

// LoadConfig load configuration information. With an empty file the
// optional kvmConf.yaml is looked up in ./config/ and the working
// directory. Environment variables (KVM_SERVER_PORT, ...) override the
// file and flags set on fs override both.
func LoadConfig(file string, fs *pflag.FlagSet) (*CfgInfo, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("kvmConf")
		v.AddConfigPath("./config/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("KVM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg CfgInfo
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *CfgInfo) Validate() error {
	if c.ServerCfg == nil || c.StoreCfg == nil || c.LimiterCfg == nil || c.StatusCfg == nil || c.LogCfg == nil {
		return errors.New("incomplete configuration")
	}
	s := c.ServerCfg
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	if s.MaxConnections <= 0 {
		return fmt.Errorf("maxconnections must be positive, got %d", s.MaxConnections)
	}
	if s.PipelineDepth <= 0 {
		return fmt.Errorf("pipelinedepth must be positive, got %d", s.PipelineDepth)
	}
	if s.MaxFrameSize == 0 {
		return errors.New("maxframesize must be positive")
	}
	if c.LimiterCfg.Enabled && (c.LimiterCfg.Rate <= 0 || c.LimiterCfg.Burst <= 0) {
		return errors.New("limiter rate and burst must be positive")
	}
	return nil
}
