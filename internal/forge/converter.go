package forge

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Transformer 是转换流水线中的单个阶段，对文件内容做一次字节变换。
type Transformer interface {
	Transform(data []byte) ([]byte, error)
}

// TransformFunc 让普通函数满足 Transformer。
type TransformFunc func(data []byte) ([]byte, error)

// Transform makes TransformFunc satisfy Transformer.
func (f TransformFunc) Transform(data []byte) ([]byte, error) {
	return f(data)
}

// Stage 是带名称的转换阶段，名称用于配置与日志。
type Stage struct {
	Name        string
	Transformer Transformer
}

var converters sync.Map

// ErrDuplicateConverter indicates a converter name is already registered.
var ErrDuplicateConverter = errors.New("converter already registered")

// RegisterConverter 以 name 注册一个转换阶段，重复注册返回 ErrDuplicateConverter。
func RegisterConverter(name string, t Transformer) error {
	key := normalizeConverterName(name)
	if key == "" {
		return errors.New("converter name required")
	}
	if t == nil {
		return errors.New("converter transformer required")
	}
	if _, loaded := converters.LoadOrStore(key, Stage{Name: key, Transformer: t}); loaded {
		return fmt.Errorf("%w: %s", ErrDuplicateConverter, key)
	}
	return nil
}

// MustRegisterConverter panics on registration failure; suitable for init().
func MustRegisterConverter(name string, t Transformer) {
	if err := RegisterConverter(name, t); err != nil {
		panic(err)
	}
}

// LookupConverter 返回已注册的转换阶段。
func LookupConverter(name string) (Stage, bool) {
	key := normalizeConverterName(name)
	if key == "" {
		return Stage{}, false
	}
	if value, ok := converters.Load(key); ok {
		if stage, ok := value.(Stage); ok {
			return stage, true
		}
	}
	return Stage{}, false
}

// ConverterNames 返回所有已注册阶段的名称（排序后），用于配置校验提示。
func ConverterNames() []string {
	var names []string
	converters.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// ResolvePipeline 按配置顺序把名称解析为转换阶段，遇到未注册的名称立即返回错误。
func ResolvePipeline(names []string) ([]Stage, error) {
	if len(names) == 0 {
		return nil, nil
	}
	stages := make([]Stage, 0, len(names))
	for _, name := range names {
		stage, ok := LookupConverter(name)
		if !ok {
			return nil, fmt.Errorf("unknown converter %q (registered: %s)", name, strings.Join(ConverterNames(), ","))
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// ApplyPipeline 依次执行每个阶段，任一阶段失败即中止。
func ApplyPipeline(stages []Stage, data []byte) ([]byte, error) {
	for _, stage := range stages {
		out, err := stage.Transformer.Transform(data)
		if err != nil {
			return nil, fmt.Errorf("converter %s: %w", stage.Name, err)
		}
		data = out
	}
	return data, nil
}

func normalizeConverterName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(data []byte) ([]byte, error) {
	return bytes.TrimPrefix(data, utf8BOM), nil
}

func init() {
	MustRegisterConverter("strip-bom", TransformFunc(stripBOM))
}
