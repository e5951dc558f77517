package forge

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Source 描述条目的磁盘来源。Versions 非空时表示多版本条目
// （文件同名目录下的 v<semver> 子目录），目前尚未支持。
type Source struct {
	Path     string
	Versions map[string]string
}

// Versioned 表示该来源是否为多版本条目。
func (s Source) Versioned() bool {
	return len(s.Versions) > 0
}

// Entry 表示一个可对外提供的文件。
type Entry struct {
	Source      Source
	Converters  []Stage
	ContentType string
	Hidden      bool
}

// Node 表示一个目录。同一个名称在 Children 与 Files 中至多出现一次。
type Node struct {
	Children map[string]*Node
	Files    map[string]*Entry
	Depth    int
	Hidden   bool
}

func newNode(depth int, hidden bool) *Node {
	return &Node{
		Children: make(map[string]*Node),
		Files:    make(map[string]*Entry),
		Depth:    depth,
		Hidden:   hidden,
	}
}

// TraverseKind 区分路径解析的三种结果。
type TraverseKind int

const (
	TraverseNotFound TraverseKind = iota
	TraverseDirectory
	TraverseFile
)

// TraverseResult 是 Traverse 的结果，Kind 决定 Node 与 Entry 哪个有效。
type TraverseResult struct {
	Kind  TraverseKind
	Node  *Node
	Entry *Entry
}

// Traverse 沿路径片段逐级查找。空路径返回当前目录；文件只能出现在最后一段，
// 文件之后仍有片段时视为不存在。
func (n *Node) Traverse(segments []string) TraverseResult {
	current := n
	for i, name := range segments {
		if child, ok := current.Children[name]; ok {
			current = child
			continue
		}
		if entry, ok := current.Files[name]; ok && i == len(segments)-1 {
			return TraverseResult{Kind: TraverseFile, Entry: entry}
		}
		return TraverseResult{Kind: TraverseNotFound}
	}
	return TraverseResult{Kind: TraverseDirectory, Node: current}
}

// List 返回目录下未隐藏的子目录与文件名（均已排序）。
// 路径不存在返回 ErrNotFound，指向文件返回 ErrIsFile。
func (n *Node) List(segments []string) ([]string, []string, error) {
	res := n.Traverse(segments)
	switch res.Kind {
	case TraverseFile:
		return nil, nil, ErrIsFile
	case TraverseNotFound:
		return nil, nil, ErrNotFound
	}

	dirs := make([]string, 0, len(res.Node.Children))
	for name, child := range res.Node.Children {
		if !child.Hidden {
			dirs = append(dirs, name)
		}
	}
	files := make([]string, 0, len(res.Node.Files))
	for name, entry := range res.Node.Files {
		if !entry.Hidden {
			files = append(files, name)
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files, nil
}

// Count 递归统计目录与文件数量（包含隐藏条目，不含自身）。
func (n *Node) Count() (dirs, files int) {
	files = len(n.Files)
	for _, child := range n.Children {
		d, f := child.Count()
		dirs += d + 1
		files += f
	}
	return dirs, files
}

// Dump 以缩进形式输出目录树，隐藏条目带 (hidden) 标记，便于排查配置。
func (n *Node) Dump(w io.Writer) {
	n.dump(w, 0)
}

func (n *Node) dump(w io.Writer, indent int) {
	prefix := strings.Repeat("  ", indent)
	for _, name := range sortedKeys(n.Children) {
		child := n.Children[name]
		fmt.Fprintf(w, "%s%s/%s\n", prefix, name, hiddenMark(child.Hidden))
		child.dump(w, indent+1)
	}
	for _, name := range sortedKeys(n.Files) {
		fmt.Fprintf(w, "%s%s%s\n", prefix, name, hiddenMark(n.Files[name].Hidden))
	}
}

func hiddenMark(hidden bool) string {
	if hidden {
		return " (hidden)"
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
