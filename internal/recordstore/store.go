// Package recordstore persists buckets, collections and records and emits
// change events around every write.
//
// Update events are dispatched before the write so a listener can veto it.
// Create and delete events are dispatched once the change is committed.
package recordstore

import (
	"Go_Attach/internal/events"
	"Go_Attach/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a bucket, collection or record is missing.
var ErrNotFound = errors.New("resource not found")

// WriteOptions tags a write with its origin.
type WriteOptions struct {
	// SystemOriginated marks writes made by the service itself, such as
	// attachment metadata updates. Listeners may treat them differently.
	SystemOriginated bool
}

// Patch is merged into an existing record: top-level data keys are
// replaced (a nil value stores JSON null), permissions likewise.
type Patch struct {
	Data        map[string]any
	Permissions map[string]any
}

type Store struct {
	db       *gorm.DB
	dispatch *events.Dispatcher
	last     atomic.Int64
}

func New(db *gorm.DB, dispatcher *events.Dispatcher) *Store {
	return &Store{db: db, dispatch: dispatcher}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// timestamp returns a strictly increasing millisecond clock.
func (s *Store) timestamp() int64 {
	for {
		last := s.last.Load()
		now := time.Now().UnixMilli()
		if now <= last {
			now = last + 1
		}
		if s.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// PutBucket creates the bucket if missing. created reports whether it did.
func (s *Store) PutBucket(ctx context.Context, bucketID string) (*model.Bucket, bool, error) {
	existing, err := s.GetBucket(ctx, bucketID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	bucket := &model.Bucket{ID: bucketID, LastModified: s.timestamp()}
	if err := s.db.WithContext(ctx).Create(bucket).Error; err != nil {
		return nil, false, fmt.Errorf("create bucket: %w", err)
	}
	ev := events.Event{
		Kind:      events.KindBucket,
		Action:    events.ActionCreate,
		BucketID:  bucketID,
		URI:       model.BucketURI(bucketID),
		Timestamp: bucket.LastModified,
	}
	return bucket, true, s.dispatch.Dispatch(ctx, ev)
}

func (s *Store) GetBucket(ctx context.Context, bucketID string) (*model.Bucket, error) {
	var bucket model.Bucket
	if err := s.db.WithContext(ctx).Where("id = ?", bucketID).First(&bucket).Error; err != nil {
		return nil, notFound(err)
	}
	return &bucket, nil
}

// DeleteBucket removes the bucket and everything under it.
func (s *Store) DeleteBucket(ctx context.Context, bucketID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", bucketID).Delete(&model.Bucket{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("bucket_id = ?", bucketID).Delete(&model.Collection{}).Error; err != nil {
			return err
		}
		return tx.Where("bucket_id = ?", bucketID).Delete(&model.Record{}).Error
	})
	if err != nil {
		return err
	}
	return s.dispatch.Dispatch(ctx, events.Event{
		Kind:      events.KindBucket,
		Action:    events.ActionDelete,
		BucketID:  bucketID,
		URI:       model.BucketURI(bucketID),
		Timestamp: s.timestamp(),
	})
}

// PutCollection creates the collection if missing. The bucket must exist.
func (s *Store) PutCollection(ctx context.Context, bucketID, collectionID string) (*model.Collection, bool, error) {
	if _, err := s.GetBucket(ctx, bucketID); err != nil {
		return nil, false, err
	}
	existing, err := s.GetCollection(ctx, bucketID, collectionID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	collection := &model.Collection{BucketID: bucketID, ID: collectionID, LastModified: s.timestamp()}
	if err := s.db.WithContext(ctx).Create(collection).Error; err != nil {
		return nil, false, fmt.Errorf("create collection: %w", err)
	}
	ev := events.Event{
		Kind:         events.KindCollection,
		Action:       events.ActionCreate,
		BucketID:     bucketID,
		CollectionID: collectionID,
		URI:          model.CollectionURI(bucketID, collectionID),
		Timestamp:    collection.LastModified,
	}
	return collection, true, s.dispatch.Dispatch(ctx, ev)
}

func (s *Store) GetCollection(ctx context.Context, bucketID, collectionID string) (*model.Collection, error) {
	var collection model.Collection
	err := s.db.WithContext(ctx).
		Where("bucket_id = ? AND id = ?", bucketID, collectionID).
		First(&collection).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &collection, nil
}

// DeleteCollection removes the collection and its records.
func (s *Store) DeleteCollection(ctx context.Context, bucketID, collectionID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("bucket_id = ? AND id = ?", bucketID, collectionID).Delete(&model.Collection{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("bucket_id = ? AND collection_id = ?", bucketID, collectionID).Delete(&model.Record{}).Error
	})
	if err != nil {
		return err
	}
	return s.dispatch.Dispatch(ctx, events.Event{
		Kind:         events.KindCollection,
		Action:       events.ActionDelete,
		BucketID:     bucketID,
		CollectionID: collectionID,
		URI:          model.CollectionURI(bucketID, collectionID),
		Timestamp:    s.timestamp(),
	})
}

// GetRecord returns the record or ErrNotFound.
func (s *Store) GetRecord(ctx context.Context, path model.RecordPath) (*model.Record, error) {
	var record model.Record
	err := s.db.WithContext(ctx).
		Where("bucket_id = ? AND collection_id = ? AND id = ?", path.BucketID, path.CollectionID, path.RecordID).
		First(&record).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}

// PutRecord replaces the record data, creating the record if needed.
// The parent collection must exist.
func (s *Store) PutRecord(ctx context.Context, path model.RecordPath, data, permissions map[string]any, opts WriteOptions) (*model.Record, bool, error) {
	if _, err := s.GetCollection(ctx, path.BucketID, path.CollectionID); err != nil {
		return nil, false, err
	}
	existing, err := s.GetRecord(ctx, path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	if existing == nil {
		record, err := s.create(ctx, path, data, permissions, opts)
		return record, true, err
	}
	record, err := s.update(ctx, existing, data, permissions, opts)
	return record, false, err
}

// PatchRecord merges patch into an existing record.
func (s *Store) PatchRecord(ctx context.Context, path model.RecordPath, patch Patch, opts WriteOptions) (*model.Record, error) {
	existing, err := s.GetRecord(ctx, path)
	if err != nil {
		return nil, err
	}
	data, err := Decode(existing.Data)
	if err != nil {
		return nil, err
	}
	for key, value := range patch.Data {
		data[key] = value
	}
	var permissions map[string]any
	if patch.Permissions != nil {
		permissions, err = Decode(existing.Permissions)
		if err != nil {
			return nil, err
		}
		for key, value := range patch.Permissions {
			permissions[key] = value
		}
	}
	return s.update(ctx, existing, data, permissions, opts)
}

// UpsertRecord patches the record, creating it when missing.
func (s *Store) UpsertRecord(ctx context.Context, path model.RecordPath, patch Patch, opts WriteOptions) (*model.Record, error) {
	record, err := s.PatchRecord(ctx, path, patch, opts)
	if !errors.Is(err, ErrNotFound) {
		return record, err
	}
	record, _, err = s.PutRecord(ctx, path, patch.Data, patch.Permissions, opts)
	return record, err
}

// DeleteRecord removes the record and returns its last state.
func (s *Store) DeleteRecord(ctx context.Context, path model.RecordPath) (*model.Record, error) {
	existing, err := s.GetRecord(ctx, path)
	if err != nil {
		return nil, err
	}
	result := s.db.WithContext(ctx).
		Where("bucket_id = ? AND collection_id = ? AND id = ?", path.BucketID, path.CollectionID, path.RecordID).
		Delete(&model.Record{})
	if result.Error != nil {
		return nil, fmt.Errorf("delete record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	old, err := Decode(existing.Data)
	if err != nil {
		return nil, err
	}
	ev := recordEvent(events.ActionDelete, path, s.timestamp(), old, nil, WriteOptions{})
	return existing, s.dispatch.Dispatch(ctx, ev)
}

func (s *Store) create(ctx context.Context, path model.RecordPath, data, permissions map[string]any, opts WriteOptions) (*model.Record, error) {
	dataJSON, normalized, err := encode(data)
	if err != nil {
		return nil, err
	}
	permsJSON, _, err := encode(permissions)
	if err != nil {
		return nil, err
	}
	record := &model.Record{
		BucketID:     path.BucketID,
		CollectionID: path.CollectionID,
		ID:           path.RecordID,
		Data:         dataJSON,
		Permissions:  permsJSON,
		LastModified: s.timestamp(),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	ev := recordEvent(events.ActionCreate, path, record.LastModified, nil, normalized, opts)
	return record, s.dispatch.Dispatch(ctx, ev)
}

// update runs the update listeners before writing, so that any of them can
// reject the new state.
func (s *Store) update(ctx context.Context, existing *model.Record, data, permissions map[string]any, opts WriteOptions) (*model.Record, error) {
	old, err := Decode(existing.Data)
	if err != nil {
		return nil, err
	}
	dataJSON, normalized, err := encode(data)
	if err != nil {
		return nil, err
	}
	timestamp := s.timestamp()
	ev := recordEvent(events.ActionUpdate, existing.Path(), timestamp, old, normalized, opts)
	if err := s.dispatch.Dispatch(ctx, ev); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"data":          dataJSON,
		"last_modified": timestamp,
	}
	if permissions != nil {
		permsJSON, _, err := encode(permissions)
		if err != nil {
			return nil, err
		}
		updates["permissions"] = permsJSON
		existing.Permissions = permsJSON
	}
	err = s.db.WithContext(ctx).Model(&model.Record{}).
		Where("bucket_id = ? AND collection_id = ? AND id = ?", existing.BucketID, existing.CollectionID, existing.ID).
		Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	existing.Data = dataJSON
	existing.LastModified = timestamp
	return existing, nil
}

func recordEvent(action events.Action, path model.RecordPath, timestamp int64, old, current map[string]any, opts WriteOptions) events.Event {
	return events.Event{
		Kind:             events.KindRecord,
		Action:           action,
		BucketID:         path.BucketID,
		CollectionID:     path.CollectionID,
		RecordID:         path.RecordID,
		URI:              path.RecordURI(),
		Timestamp:        timestamp,
		Old:              old,
		New:              current,
		SystemOriginated: opts.SystemOriginated,
	}
}

// encode marshals data and returns it decoded again, so that typed values
// (structs, pointers) compare equal to what a later read returns.
func encode(data map[string]any) (datatypes.JSON, map[string]any, error) {
	fields := make(map[string]any, len(data))
	for key, value := range data {
		if key == "id" || key == "last_modified" {
			continue
		}
		fields[key] = value
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, fmt.Errorf("encode record: %w", err)
	}
	normalized, err := Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	return datatypes.JSON(raw), normalized, nil
}

// Decode turns a stored JSON object into a map. Empty input yields an empty map.
func Decode(raw datatypes.JSON) (map[string]any, error) {
	out := map[string]any{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Body renders a record the way the HTTP API returns it.
func Body(record *model.Record) (map[string]any, error) {
	data, err := Decode(record.Data)
	if err != nil {
		return nil, err
	}
	data["id"] = record.ID
	data["last_modified"] = record.LastModified
	permissions, err := Decode(record.Permissions)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": data, "permissions": permissions}, nil
}
