package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/forgecdn/forge/internal/forge"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if g.LogLevel != "" {
		if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
			return newFieldError("LogLevel", fmt.Sprintf("无法识别的日志级别: %s", g.LogLevel))
		}
	}

	f := c.Forge
	if strings.TrimSpace(f.ForgeRoot) == "" {
		return newFieldError("ForgeRoot", "不能为空")
	}
	if f.Instances < 0 {
		return newFieldError("Instances", "不能为负数")
	}
	if f.CacheEntries <= 0 {
		return newFieldError("CacheEntries", "必须大于 0")
	}
	if f.ReloadDebounce.DurationValue() < 0 {
		return newFieldError("ReloadDebounce", "不能为负数")
	}
	if f.ResyncEnabled() {
		if _, err := cron.ParseStandard(f.ResyncSchedule); err != nil {
			return newFieldError("ResyncSchedule", fmt.Sprintf("无效的 cron 表达式: %v", err))
		}
	}
	for _, name := range f.Converters {
		if _, ok := forge.LookupConverter(name); !ok {
			return newFieldError("Converters", fmt.Sprintf("未注册的转换器: %s", name))
		}
	}

	if err := validatePrefix("CDNPrefix", f.CDNPrefix); err != nil {
		return err
	}
	if err := validatePrefix("BrowsePrefix", f.BrowsePrefix); err != nil {
		return err
	}
	if f.CDNPrefix == f.BrowsePrefix {
		return newFieldError("BrowsePrefix", "不能与 CDNPrefix 相同")
	}
	if f.CDNPrefix == "/-" || f.BrowsePrefix == "/-" {
		return newFieldError("CDNPrefix/BrowsePrefix", "/- 保留给诊断接口")
	}

	return nil
}

func validatePrefix(field, prefix string) error {
	if prefix == "" {
		return newFieldError(field, "不能为空或仅为 /")
	}
	if !strings.HasPrefix(prefix, "/") {
		return newFieldError(field, "必须以 / 开头")
	}
	if strings.ContainsAny(prefix, " ?#") {
		return newFieldError(field, "不允许包含空格、? 或 #")
	}
	return nil
}
