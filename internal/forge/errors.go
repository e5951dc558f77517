package forge

import "errors"

var (
	// ErrNotFound 表示路径在目录树中没有对应的节点或文件。
	ErrNotFound = errors.New("forge: not found")
	// ErrIsFile 表示请求列出目录，但路径指向的是文件。
	ErrIsFile = errors.New("forge: path is a file")
	// ErrVersionedUnsupported 表示条目使用了尚未支持的多版本存储。
	ErrVersionedUnsupported = errors.New("forge: versioned entries are not supported")
)
