package dto

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RecordRequest is the body of record writes.
type RecordRequest struct {
	Data        map[string]any `json:"data"`
	Permissions map[string]any `json:"permissions"`
}
