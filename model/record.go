package model

import (
	"time"

	"gorm.io/datatypes"
)

type Bucket struct {
	ID string `gorm:"primaryKey;column:id;size:255"`

	LastModified int64 `gorm:"column:last_modified;not null"`
	CreatedAt    time.Time
}

// TableName returns the database table name.
func (Bucket) TableName() string {
	return "bucket"
}

type Collection struct {
	BucketID string `gorm:"primaryKey;column:bucket_id;size:255"`
	ID       string `gorm:"primaryKey;column:id;size:255"`

	LastModified int64 `gorm:"column:last_modified;not null"`
	CreatedAt    time.Time
}

// TableName returns the database table name.
func (Collection) TableName() string {
	return "collection"
}

// Record is a schemaless JSON document stored under a collection.
// LastModified is a millisecond timestamp bumped on every write.
type Record struct {
	BucketID     string `gorm:"primaryKey;column:bucket_id;size:255"`
	CollectionID string `gorm:"primaryKey;column:collection_id;size:255"`
	ID           string `gorm:"primaryKey;column:id;size:255"`

	Data        datatypes.JSON `gorm:"column:data"`
	Permissions datatypes.JSON `gorm:"column:permissions"`

	LastModified int64 `gorm:"column:last_modified;not null;index"`
}

// TableName returns the database table name.
func (Record) TableName() string {
	return "record"
}

// Path returns the record location.
func (r *Record) Path() RecordPath {
	return RecordPath{BucketID: r.BucketID, CollectionID: r.CollectionID, RecordID: r.ID}
}
