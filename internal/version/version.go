package version

import "fmt"

// Version/Commit 可在构建时通过 -ldflags 注入，默认使用开发占位符。
var (
	Version = "0.1.0"
	Commit  = "dev"
)

// Full 返回便于 CLI 打印的完整版本信息。
func Full() string {
	return fmt.Sprintf("forge %s (%s)", Version, Commit)
}

// Info 是诊断接口输出的版本信息。
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// Current 返回当前构建的版本信息。
func Current() Info {
	return Info{Version: Version, Commit: Commit}
}
