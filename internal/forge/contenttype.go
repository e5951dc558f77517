package forge

import "strings"

// DefaultContentType 是无法识别扩展名时的兜底类型。
const DefaultContentType = "text/plain"

var contentTypes = map[string]string{
	"ogg":   "application/ogg",
	"pdf":   "application/pdf",
	"json":  "application/json",
	"wasm":  "application/wasm",
	"xml":   "text/xml",
	"mpeg":  "audio/mpeg",
	"mp3":   "audio/mpeg",
	"gif":   "image/gif",
	"jpeg":  "image/jpeg",
	"jpg":   "image/jpeg",
	"png":   "image/png",
	"tiff":  "image/tiff",
	"svg":   "image/svg+xml",
	"webp":  "image/webp",
	"ico":   "image/x-icon",
	"css":   "text/css",
	"csv":   "text/csv",
	"html":  "text/html",
	"htm":   "text/html",
	"js":    "text/javascript",
	"mjs":   "text/javascript",
	"txt":   "text/plain",
	"mp4":   "video/mp4",
	"mov":   "video/quicktime",
	"flv":   "video/x-flv",
	"webm":  "video/webm",
	"woff":  "font/woff",
	"woff2": "font/woff2",
}

// ContentTypeFor 按扩展名查表返回 MIME 类型，ext 可以带或不带前导点。
// 大小写按原样匹配。
func ContentTypeFor(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return DefaultContentType
}
