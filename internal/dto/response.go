package dto

// AttachmentCapability is advertised under capabilities.attachments.
type AttachmentCapability struct {
	Version     string `json:"version"`
	Description string `json:"description"`
	URL         string `json:"url"`
	BaseURL     string `json:"base_url"`
}

// ServerInfo is the response of the API root.
type ServerInfo struct {
	ProjectName    string         `json:"project_name"`
	ProjectVersion string         `json:"project_version"`
	HTTPAPIVersion string         `json:"http_api_version"`
	URL            string         `json:"url"`
	Capabilities   map[string]any `json:"capabilities"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// ResourceResponse wraps a bucket, collection or record.
type ResourceResponse struct {
	Data        map[string]any `json:"data"`
	Permissions map[string]any `json:"permissions,omitempty"`
}
