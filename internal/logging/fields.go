package logging

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ForgeFields 描述服务的目录与实例池规模，启动与 check-config 共用。
func ForgeFields(root string, instances, cacheEntries int) logrus.Fields {
	return logrus.Fields{
		"forge_root":    root,
		"instances":     instances,
		"cache_entries": cacheEntries,
	}
}

// RequestFields 提供请求路径、状态码与缓存命中字段，供 HTTP 请求日志复用。
func RequestFields(action, method, path string, status int, cacheHit bool, elapsed time.Duration) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"method":     method,
		"path":       path,
		"status":     status,
		"cache_hit":  cacheHit,
		"elapsed_ms": elapsed.Milliseconds(),
	}
}
