package storage

import (
	"path"
	"strings"
)

var extensionGroups = map[string][]string{
	"text":        {"txt"},
	"documents":   {"rtf", "odf", "ods", "gnumeric", "abw", "doc", "docx", "xls", "xlsx", "pdf"},
	"images":      {"jpg", "jpe", "jpeg", "png", "gif", "svg", "bmp", "tiff"},
	"audio":       {"wav", "mp3", "aac", "ogg", "oga", "flac"},
	"data":        {"csv", "ini", "json", "plist", "xml", "yaml", "yml"},
	"scripts":     {"py", "js", "rb", "sh", "pl", "php"},
	"archives":    {"gz", "bz2", "zip", "tar", "tgz", "txz", "7z"},
	"executables": {"so", "exe", "dll"},
}

func init() {
	var def []string
	for _, group := range []string{"text", "documents", "images", "data"} {
		def = append(def, extensionGroups[group]...)
	}
	extensionGroups["default"] = def
}

// Extensions is an extension allow-list.
type Extensions struct {
	any bool
	set map[string]struct{}
}

// ParseExtensions parses an allow-list such as "default+archives" or
// "images, pem". Group names expand to their members; "any" and "all"
// allow every extension, including none.
func ParseExtensions(spec string) Extensions {
	return NewExtensions(strings.FieldsFunc(spec, func(r rune) bool {
		return r == '+' || r == ',' || r == ' ' || r == '\t'
	}))
}

// NewExtensions builds an allow-list from group names and extensions.
func NewExtensions(items []string) Extensions {
	e := Extensions{set: make(map[string]struct{})}
	for _, item := range items {
		item = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(item), "."))
		if item == "" {
			continue
		}
		if item == "any" || item == "all" {
			e.any = true
			continue
		}
		if members, ok := extensionGroups[item]; ok {
			for _, ext := range members {
				e.set[ext] = struct{}{}
			}
			continue
		}
		e.set[item] = struct{}{}
	}
	return e
}

// AllowsFile reports whether the filename extension is allowed.
func (e Extensions) AllowsFile(filename string) bool {
	if e.any {
		return true
	}
	ext := Ext(filename)
	if ext == "" {
		return false
	}
	_, ok := e.set[ext]
	return ok
}

// Ext returns the lowercase extension of filename without the dot.
func Ext(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

// allowed applies the per-call override, falling back to the configured list.
func allowed(configured Extensions, filename string, override []string) bool {
	if override != nil {
		return NewExtensions(override).AllowsFile(filename)
	}
	return configured.AllowsFile(filename)
}
