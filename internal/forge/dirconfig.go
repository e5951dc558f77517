package forge

import (
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// ConfigFileName 是每个目录中保留的配置文件名，本身不会作为文件对外提供。
const ConfigFileName = "forge.toml"

// DirConfig 描述单个目录的 forge.toml。
//
// 目前真正参与目录树构建的只有 ContentType、Parented 与 Hidden；
// 其余字段会被解析并保留，但服务路径不会使用它们。
type DirConfig struct {
	ContentType string   `toml:"content_type"`
	AltNames    []string `toml:"alt_names"`
	Ignore      []string `toml:"ignore"`
	Password    string   `toml:"password"`
	Zip         bool     `toml:"zip"`
	ZipParent   bool     `toml:"zip_parent"`
	Parented    bool     `toml:"parented"`
	Hidden      bool     `toml:"hidden"`
	ConvertTo   string   `toml:"convert_to"`
	ResizeTo    string   `toml:"resize_to"`
}

// LoadDirConfig 读取 dir 下的 forge.toml。文件不存在或解析失败时返回零值配置。
func LoadDirConfig(fsys afero.Fs, dir string) DirConfig {
	raw, err := afero.ReadFile(fsys, filepath.Join(dir, ConfigFileName))
	if err != nil {
		return DirConfig{}
	}
	var cfg DirConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return DirConfig{}
	}
	return cfg
}

// MergesIntoParent 表示目录内容需要并入父目录。
func (c DirConfig) MergesIntoParent() bool {
	return c.Parented
}

// HidesMergedItems 表示本目录的文件与并入上级的子目录节点需要在列表中隐藏；
// 从更深层并入的文件保留各自的 Hidden 标记。
func (c DirConfig) HidesMergedItems() bool {
	return c.Parented && c.Hidden
}
