package model

// Link index fields. Lookups are always by one of these, never by location.
const (
	LinkFieldBucket     = "bucket_uri"
	LinkFieldCollection = "collection_uri"
	LinkFieldRecord     = "record_uri"
)

// BucketURI returns the canonical bucket URI.
func BucketURI(bucketID string) string {
	return "/buckets/" + bucketID
}

// CollectionURI returns the canonical collection URI.
func CollectionURI(bucketID, collectionID string) string {
	return BucketURI(bucketID) + "/collections/" + collectionID
}

// RecordURI returns the canonical record URI.
func RecordURI(bucketID, collectionID, recordID string) string {
	return CollectionURI(bucketID, collectionID) + "/records/" + recordID
}

// RecordPath identifies a record by its parent ids.
type RecordPath struct {
	BucketID     string `json:"bucket_id"`
	CollectionID string `json:"collection_id"`
	RecordID     string `json:"id"`
}

func (p RecordPath) BucketURI() string {
	return BucketURI(p.BucketID)
}

func (p RecordPath) CollectionURI() string {
	return CollectionURI(p.BucketID, p.CollectionID)
}

func (p RecordPath) RecordURI() string {
	return RecordURI(p.BucketID, p.CollectionID, p.RecordID)
}
