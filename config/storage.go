package config

import (
	"strconv"
	"strings"
)

// BackendKind names the blob backend selected at startup.
type BackendKind string

const (
	BackendLocal BackendKind = "local"
	BackendGCS   BackendKind = "gcs"
	BackendS3    BackendKind = "s3"
)

// StorageConfig holds the blob backend settings.
type StorageConfig struct {
	Kind       BackendKind `json:"kind"`
	BasePath   string      `json:"base_path"`
	BaseURL    string      `json:"base_url"`
	Extensions string      `json:"extensions"` // e.g. "default+archives"
	S3         S3Config    `json:"s3"`
	GCS        GCSConfig   `json:"gcs"`
}

// S3Config describes an S3-compatible endpoint reached through minio-go.
type S3Config struct {
	Host      string `json:"host"`
	Port      string `json:"port"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket_name"`
	Region    string `json:"region"`
	ACL       string `json:"acl"`
	UseSSL    bool   `json:"is_secure"`
}

// Endpoint returns host[:port] as expected by minio.New.
func (c S3Config) Endpoint() string {
	if c.Port == "" {
		return c.Host
	}
	return c.Host + ":" + c.Port
}

// GCSConfig describes a Google Cloud Storage bucket.
type GCSConfig struct {
	Credentials string `json:"credentials"`
	Bucket      string `json:"bucket_name"`
	ACL         string `json:"acl"`
}

// NewStorageConfig builds the backend configuration from the attachment
// backend settings (keys without the "attachment." prefix).
// base_path selects local disk, gcloud.credentials selects GCS, anything
// else falls back to S3.
func NewStorageConfig(backend map[string]string) StorageConfig {
	get := func(key, def string) string {
		if value, ok := backend[key]; ok && value != "" {
			return value
		}
		return def
	}
	cfg := StorageConfig{
		BasePath:   get("base_path", ""),
		BaseURL:    get("base_url", ""),
		Extensions: get("extensions", "default"),
		S3: S3Config{
			Host:      get("aws.host", "s3.amazonaws.com"),
			Port:      get("aws.port", ""),
			AccessKey: get("aws.access_key", ""),
			SecretKey: get("aws.secret_key", ""),
			Bucket:    get("aws.bucket_name", ""),
			Region:    get("aws.region", ""),
			ACL:       get("aws.acl", "public-read"),
			UseSSL:    parseBoolDefault(get("aws.is_secure", ""), true),
		},
		GCS: GCSConfig{
			Credentials: get("gcloud.credentials", ""),
			Bucket:      get("gcloud.bucket_name", ""),
			ACL:         get("gcloud.acl", "publicRead"),
		},
	}
	switch {
	case cfg.BasePath != "":
		cfg.Kind = BackendLocal
	case cfg.GCS.Credentials != "":
		cfg.Kind = BackendGCS
	default:
		cfg.Kind = BackendS3
	}
	return cfg
}

func parseBoolDefault(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "yes", "y", "on":
		return true
	case "no", "n", "off":
		return false
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return parsed
}
