package logger

type Config struct {
	Level      string `mapstructure:"level"`
	FileName   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxsize"`
	MaxAge     int    `mapstructure:"maxage"`
	MaxBackups int    `mapstructure:"maxbackups"`
	Compress   bool   `mapstructure:"compress"`

	// Console also writes every entry to stdout.
	Console bool `mapstructure:"console"`
}

func DefaultConfig() *Config {
	return &Config{
		Level:      "INFO",
		FileName:   "./logs/kvmd.log",
		MaxSize:    500,
		MaxAge:     360,
		MaxBackups: 20,
		Compress:   true,
		Console:    true,
	}
}
