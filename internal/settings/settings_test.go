package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResourceRules(t *testing.T) {
	s, err := Parse(map[string]string{
		"attachment.base_path":                                "/tmp",
		"attachment.resources.fennec.gzipped":                 "true",
		"attachment.resources.fingerprinting.fonts.randomize": "false",
		"unrelated.setting":                                   "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/buckets/fennec", "/buckets/fingerprinting/collections/fonts"}, s.Resources())
	assert.Equal(t, map[string]string{"base_path": "/tmp"}, s.Backend())
}

func TestValueLayering(t *testing.T) {
	s, err := Parse(map[string]string{
		"attachment.keep_old_files":                          "true",
		"attachment.resources.blog.keep_old_files":           "false",
		"attachment.resources.blog.articles.keep_old_files":  "true",
		"attachment.resources.blog.articles.folder":          "{bucket_id}",
		"attachment.resources.other.comments.keep_old_files": "false",
	})
	require.NoError(t, err)

	assert.True(t, s.Bool(KeepOldFiles, "main", "notes"), "global value")
	assert.False(t, s.Bool(KeepOldFiles, "blog", "drafts"), "bucket rule")
	assert.True(t, s.Bool(KeepOldFiles, "blog", "articles"), "collection rule")
	assert.False(t, s.Bool(KeepOldFiles, "blog", ""), "empty collection skips collection layer")
	assert.True(t, s.Bool(KeepOldFiles, "other", "posts"), "no rule for this collection")
	assert.False(t, s.Bool(KeepOldFiles, "other", "comments"))
	assert.Equal(t, "{bucket_id}", s.String(Folder, "blog", "articles"))
	assert.Equal(t, "", s.String(Folder, "blog", "drafts"))
}

func TestDefaults(t *testing.T) {
	s, err := Parse(nil)
	require.NoError(t, err)

	assert.True(t, s.Bool(Randomize, "b", "c"))
	assert.False(t, s.Bool(KeepOldFiles, "b", "c"))
	assert.False(t, s.Bool(Gzipped, "b", "c"))
	assert.Equal(t, "", s.String(Mimetypes, "b", "c"))
	assert.Equal(t, "", s.BaseURL())
}

func TestParseMalformedRule(t *testing.T) {
	_, err := Parse(map[string]string{"attachment.resources.fen.nec.fonts.gzipped": "true"})
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "Configuration rule malformed: `attachment.resources.fen.nec.fonts.gzipped`", err.Error())
}

func TestParseRuleWithEmptySegment(t *testing.T) {
	for _, key := range []string{
		"attachment.resources..gzipped",
		"attachment.resources.blog..gzipped",
		"attachment.resources..articles.gzipped",
		"attachment.resources.blog.",
	} {
		_, err := Parse(map[string]string{key: "true"})
		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr), key)
		assert.Equal(t, "Configuration rule malformed: `"+key+"`", err.Error())
	}
}

func TestParseUnsupportedName(t *testing.T) {
	_, err := Parse(map[string]string{"attachment.resources.fennec.base_path": "foobar"})
	require.Error(t, err)
	assert.Equal(t, "`base_path` is not a supported setting name. Read `attachment.resources.fennec.base_path`", err.Error())
}

func TestParseInvalidBoolean(t *testing.T) {
	_, err := Parse(map[string]string{"attachment.resources.fennec.gzipped": "maybe"})
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "attachment.resources.fennec.gzipped", cfgErr.Key)
}

func TestMimetypes(t *testing.T) {
	s, err := Parse(map[string]string{
		"attachment.resources.certs.mimetypes": ".crt:application/x-x509-ca-cert;pem:text/plain",
	})
	require.NoError(t, err)

	m := s.Mimetypes("certs", "chain")
	assert.Equal(t, "application/x-x509-ca-cert", m[".crt"])
	assert.Equal(t, "text/plain", m[".pem"])
	assert.Equal(t, "application/geojson", m[".geojson"])

	assert.Equal(t, "application/x-pem-file", s.Mimetypes("other", "")[".pem"])

	_, err = Parse(map[string]string{"attachment.mimetypes": ".crt"})
	assert.Error(t, err)
}

func TestBaseURL(t *testing.T) {
	s, err := Parse(map[string]string{"attachment.base_url": "http://cdn.com"})
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.com/", s.BaseURL())

	s, err = Parse(map[string]string{
		"attachment.base_url":       "http://cdn.com",
		"attachment.extra.base_url": "https://files.server.com/root",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://files.server.com/root/", s.BaseURL())
}

func TestParseBool(t *testing.T) {
	for _, raw := range []string{"true", "True", "1", "yes", "on"} {
		v, ok := ParseBool(raw)
		assert.True(t, ok, raw)
		assert.True(t, v, raw)
	}
	for _, raw := range []string{"false", "0", "no", "off"} {
		v, ok := ParseBool(raw)
		assert.True(t, ok, raw)
		assert.False(t, v, raw)
	}
	_, ok := ParseBool("nope")
	assert.False(t, ok)
}
