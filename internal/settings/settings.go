// Package settings resolves attachment options for a bucket or collection.
//
// Options are read from the flat attachment.* namespace. Per-resource rules
// look like attachment.resources.<bid>.<option> and
// attachment.resources.<bid>.<cid>.<option>; the most specific layer wins.
// Every other attachment.* key is handed to the blob backend untouched.
package settings

import (
	"Go_Attach/model"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

const (
	prefix          = "attachment."
	resourcesPrefix = "attachment.resources."
)

// Supported option names.
const (
	Randomize    = "randomize"
	KeepOldFiles = "keep_old_files"
	Gzipped      = "gzipped"
	Mimetypes    = "mimetypes"
	Folder       = "folder"
)

var defaults = map[string]any{
	Randomize:    true,
	KeepOldFiles: false,
	Gzipped:      false,
	Mimetypes:    "",
	Folder:       "",
}

// ConfigurationError is raised for malformed attachment settings.
// It is fatal at startup.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// Settings is the resolved option table. It is read-only once Parse returns.
type Settings struct {
	global    map[string]any
	resources map[string]map[string]any
	backend   map[string]string
}

// Parse builds the option table from raw attachment.* settings.
func Parse(raw map[string]string) (*Settings, error) {
	s := &Settings{
		global:    make(map[string]any, len(defaults)),
		resources: make(map[string]map[string]any),
		backend:   make(map[string]string),
	}
	for name, value := range defaults {
		s.global[name] = value
	}

	// Sorted so that the first malformed key reported is deterministic.
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if strings.HasPrefix(key, resourcesPrefix) {
			if err := s.addResourceRule(key, value); err != nil {
				return nil, err
			}
			continue
		}
		name := strings.TrimPrefix(key, prefix)
		if _, ok := defaults[name]; ok {
			parsed, err := parseOption(key, name, value)
			if err != nil {
				return nil, err
			}
			s.global[name] = parsed
			continue
		}
		s.backend[name] = value
	}
	return s, nil
}

func (s *Settings) addResourceRule(key, value string) error {
	parts := strings.Split(strings.TrimPrefix(key, resourcesPrefix), ".")
	if len(parts) < 2 || len(parts) > 3 || slices.Contains(parts, "") {
		return &ConfigurationError{
			Key:     key,
			Message: fmt.Sprintf("Configuration rule malformed: `%s`", key),
		}
	}
	var uri, name string
	if len(parts) == 2 {
		uri = model.BucketURI(parts[0])
		name = parts[1]
	} else {
		uri = model.CollectionURI(parts[0], parts[1])
		name = parts[2]
	}
	if _, ok := defaults[name]; !ok {
		return &ConfigurationError{
			Key:     key,
			Message: fmt.Sprintf("`%s` is not a supported setting name. Read `%s`", name, key),
		}
	}
	parsed, err := parseOption(key, name, value)
	if err != nil {
		return err
	}
	if s.resources[uri] == nil {
		s.resources[uri] = make(map[string]any)
	}
	s.resources[uri][name] = parsed
	return nil
}

func parseOption(key, name, value string) (any, error) {
	if name == Mimetypes {
		if _, err := ParseMimetypes(value); err != nil {
			return nil, &ConfigurationError{
				Key:     key,
				Message: fmt.Sprintf("%s. Read `%s`", err.Error(), key),
			}
		}
	}
	if _, isBool := defaults[name].(bool); !isBool {
		return strings.TrimSpace(value), nil
	}
	parsed, ok := ParseBool(value)
	if !ok {
		return nil, &ConfigurationError{
			Key:     key,
			Message: fmt.Sprintf("`%s` is not a valid boolean. Read `%s`", value, key),
		}
	}
	return parsed, nil
}

// ParseBool accepts the usual truthy and falsy spellings.
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, false
	}
	return parsed, true
}

// DefaultMimetypes are applied before any configured mimetypes rule.
var DefaultMimetypes = map[string]string{
	".pem":     "application/x-pem-file",
	".geojson": "application/geojson",
}

// ParseMimetypes parses ".ext:type;.ext:type". A missing leading dot is added.
func ParseMimetypes(raw string) (map[string]string, error) {
	out := make(map[string]string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		ext, mimetype, ok := strings.Cut(pair, ":")
		ext = strings.ToLower(strings.TrimSpace(ext))
		mimetype = strings.TrimSpace(mimetype)
		if !ok || ext == "" || ext == "." || mimetype == "" {
			return nil, fmt.Errorf("mimetypes rule malformed: `%s`", pair)
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = mimetype
	}
	return out, nil
}

// Mimetypes returns the extension override map for a bucket and collection:
// the defaults merged with the resolved mimetypes option.
func (s *Settings) Mimetypes(bucketID, collectionID string) map[string]string {
	out := make(map[string]string, len(DefaultMimetypes))
	for ext, mimetype := range DefaultMimetypes {
		out[ext] = mimetype
	}
	// Validated by Parse.
	configured, _ := ParseMimetypes(s.String(Mimetypes, bucketID, collectionID))
	for ext, mimetype := range configured {
		out[ext] = mimetype
	}
	return out
}

// Value resolves an option for a bucket and an optional collection.
// Lookup order is collection rule, bucket rule, global value.
func (s *Settings) Value(name, bucketID, collectionID string) any {
	if collectionID != "" {
		if rule, ok := s.resources[model.CollectionURI(bucketID, collectionID)]; ok {
			if value, ok := rule[name]; ok {
				return value
			}
		}
	}
	if rule, ok := s.resources[model.BucketURI(bucketID)]; ok {
		if value, ok := rule[name]; ok {
			return value
		}
	}
	return s.global[name]
}

// Bool resolves a boolean option.
func (s *Settings) Bool(name, bucketID, collectionID string) bool {
	value, _ := s.Value(name, bucketID, collectionID).(bool)
	return value
}

// String resolves a string option.
func (s *Settings) String(name, bucketID, collectionID string) string {
	value, _ := s.Value(name, bucketID, collectionID).(string)
	return value
}

// Backend returns the non-option settings, without the attachment. prefix.
func (s *Settings) Backend() map[string]string {
	out := make(map[string]string, len(s.backend))
	for key, value := range s.backend {
		out[key] = value
	}
	return out
}

// Resources returns the URIs that carry at least one override.
func (s *Settings) Resources() []string {
	out := make([]string, 0, len(s.resources))
	for uri := range s.resources {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// BaseURL returns the public base URL advertised to clients, always
// slash-terminated. extra.base_url takes precedence over base_url.
func (s *Settings) BaseURL() string {
	base := s.backend["extra.base_url"]
	if base == "" {
		base = s.backend["base_url"]
	}
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
