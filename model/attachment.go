package model

import "time"

// Attachment is the metadata embedded in a record under the attachment field.
// When Original is set, Hash, Size and Mimetype describe the stored
// (compressed) bytes and Original describes the uploaded ones.
type Attachment struct {
	Filename string        `json:"filename"`
	Location string        `json:"location"`
	Hash     string        `json:"hash"`
	Mimetype string        `json:"mimetype"`
	Size     int64         `json:"size"`
	Original *OriginalFile `json:"original,omitempty"`
}

// OriginalFile describes the bytes as uploaded, before compression.
type OriginalFile struct {
	Filename string `json:"filename"`
	Hash     string `json:"hash"`
	Mimetype string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// AttachmentLink ties a stored blob to the record that references it.
// Location is the backend-relative key, not the public URL.
type AttachmentLink struct {
	ID uint64 `gorm:"primaryKey" json:"-"`

	Location string `gorm:"column:location;size:1024;not null" json:"location"`

	BucketURI     string `gorm:"column:bucket_uri;size:255;not null;index" json:"bucket_uri"`
	CollectionURI string `gorm:"column:collection_uri;size:512;not null;index" json:"collection_uri"`
	RecordURI     string `gorm:"column:record_uri;size:768;not null;index" json:"record_uri"`

	CreatedAt time.Time `json:"-"`
}

// TableName returns the database table name.
func (AttachmentLink) TableName() string {
	return "attachment_link"
}
