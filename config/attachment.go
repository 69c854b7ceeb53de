package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	attachmentSection   = "attachment"
	attachmentEnvPrefix = "ATTACHMENT__"
)

// LoadAttachmentSettings collects the flat attachment.* namespace.
// Keys come from the [attachment] section of the INI file at path (optional)
// and from ATTACHMENT__* environment variables, the latter winning.
// ATTACHMENT__RESOURCES__BLOG__GZIPPED maps to attachment.resources.blog.gzipped.
func LoadAttachmentSettings(path string) (map[string]string, error) {
	raw := make(map[string]string)
	if path != "" {
		file, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load attachment config %s: %w", path, err)
		}
		for _, key := range file.Section(attachmentSection).Keys() {
			raw[attachmentSection+"."+key.Name()] = strings.TrimSpace(key.Value())
		}
	}
	for _, entry := range os.Environ() {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, attachmentEnvPrefix) {
			continue
		}
		key := envKeyToSetting(strings.TrimPrefix(name, attachmentEnvPrefix))
		if key == "" {
			continue
		}
		raw[attachmentSection+"."+key] = strings.TrimSpace(value)
	}
	return raw, nil
}

func envKeyToSetting(name string) string {
	parts := strings.Split(name, "__")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		out = append(out, strings.ToLower(part))
	}
	return strings.Join(out, ".")
}
