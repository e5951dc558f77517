package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "300ms"、"5s" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述监听端口与日志等进程级参数。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
}

// ForgeConfig 决定对外提供哪个目录、实例池规模以及 reload 策略。
type ForgeConfig struct {
	ForgeRoot      string   `mapstructure:"ForgeRoot"`
	Instances      int      `mapstructure:"Instances"`
	CacheEntries   int      `mapstructure:"CacheEntries"`
	ReloadDebounce Duration `mapstructure:"ReloadDebounce"`
	ResyncSchedule string   `mapstructure:"ResyncSchedule"`
	Converters     []string `mapstructure:"Converters"`
	CDNPrefix      string   `mapstructure:"CDNPrefix"`
	BrowsePrefix   string   `mapstructure:"BrowsePrefix"`
}

// Config 是 TOML 文件映射的整体结构，两部分字段都位于顶层。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Forge  ForgeConfig  `mapstructure:",squash"`
}

// ResyncEnabled 表示是否配置了周期性全量 reload。
func (f ForgeConfig) ResyncEnabled() bool {
	return strings.TrimSpace(f.ResyncSchedule) != ""
}

// Summary 输出 check-config 使用的单行摘要。
func (c *Config) Summary() string {
	return fmt.Sprintf("root=%s instances=%d cache=%d debounce=%s resync=%q converters=%v",
		c.Forge.ForgeRoot,
		c.Forge.Instances,
		c.Forge.CacheEntries,
		c.Forge.ReloadDebounce.DurationValue(),
		c.Forge.ResyncSchedule,
		c.Forge.Converters,
	)
}
