package forge

import "os"

// LoopsBack 判断 target 是否与 ancestors 中的某个目录是同一个目录。
// 跟随目录符号链接之前必须检查，否则指向祖先目录的链接会让递归无法终止。
func LoopsBack(target os.FileInfo, ancestors []os.FileInfo) bool {
	for _, anc := range ancestors {
		if os.SameFile(target, anc) {
			return true
		}
	}
	return false
}

// WithAncestor 返回追加了 dir 的新祖先栈，不修改传入的切片。
func WithAncestor(ancestors []os.FileInfo, dir os.FileInfo) []os.FileInfo {
	next := make([]os.FileInfo, len(ancestors), len(ancestors)+1)
	copy(next, ancestors)
	return append(next, dir)
}
