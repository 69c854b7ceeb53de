package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAttachmentSettingsMergesFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attachment.ini")
	content := `[attachment]
base_path = /tmp/files
base_url = http://cdn.com
resources.fennec.gzipped = true
resources.fennec.experimental.keep_old_files = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ATTACHMENT__RESOURCES__FENNEC__EXPERIMENTAL__KEEP_OLD_FILES", "true")
	t.Setenv("ATTACHMENT__FOLDER", "{bucket_id}/{collection_id}")

	raw, err := LoadAttachmentSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/files", raw["attachment.base_path"])
	assert.Equal(t, "http://cdn.com", raw["attachment.base_url"])
	assert.Equal(t, "true", raw["attachment.resources.fennec.gzipped"])
	assert.Equal(t, "true", raw["attachment.resources.fennec.experimental.keep_old_files"])
	assert.Equal(t, "{bucket_id}/{collection_id}", raw["attachment.folder"])
}

func TestLoadAttachmentSettingsMissingFile(t *testing.T) {
	_, err := LoadAttachmentSettings(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestNewStorageConfigPriority(t *testing.T) {
	local := NewStorageConfig(map[string]string{
		"base_path":          "/tmp",
		"gcloud.credentials": "/path/to/credentials.json",
	})
	assert.Equal(t, BackendLocal, local.Kind)
	assert.Equal(t, "default", local.Extensions)

	gcs := NewStorageConfig(map[string]string{
		"gcloud.credentials": "/path/to/credentials.json",
		"gcloud.bucket_name": "foo",
	})
	assert.Equal(t, BackendGCS, gcs.Kind)
	assert.Equal(t, "foo", gcs.GCS.Bucket)

	s3 := NewStorageConfig(map[string]string{
		"aws.access_key":  "abc",
		"aws.bucket_name": "foo",
		"aws.host":        "localhost",
		"aws.port":        "9000",
		"aws.is_secure":   "false",
	})
	assert.Equal(t, BackendS3, s3.Kind)
	assert.Equal(t, "localhost:9000", s3.S3.Endpoint())
	assert.False(t, s3.S3.UseSSL)
}

func TestInitConfigDefaults(t *testing.T) {
	t.Setenv("ATTACHMENT_FIELD", "")
	t.Setenv("HEARTBEAT_CACHE_TTL", "30s")
	t.Setenv("READONLY", "yes")
	InitConfig()

	assert.Equal(t, "attachment", AppConfig.AttachmentField)
	assert.Equal(t, 30*time.Second, AppConfig.HeartbeatCacheTTL)
	assert.True(t, AppConfig.ReadOnly)
	assert.Equal(t, "v1", AppConfig.RoutePrefix)
}
