// Package listener reacts to record store events on behalf of attachments.
package listener

import (
	"Go_Attach/internal/events"
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
)

// ErrMetadataImmutable rejects client edits of attachment metadata.
var ErrMetadataImmutable = errors.New("Attachment metadata cannot be modified.")

// Cleaner removes blobs and links recorded under a link field.
type Cleaner interface {
	DeleteLinked(ctx context.Context, field, uri string, keepOldFiles bool) error
	KeepOldFiles(bucketID, collectionID string) bool
}

// CascadeListener drops attachments of deleted records, collections and
// buckets.
type CascadeListener struct {
	cleaner Cleaner
	logger  zerolog.Logger
}

func NewCascadeListener(cleaner Cleaner, logger zerolog.Logger) *CascadeListener {
	return &CascadeListener{cleaner: cleaner, logger: logger}
}

func (l *CascadeListener) Kinds() []events.Kind {
	return []events.Kind{events.KindRecord, events.KindCollection, events.KindBucket}
}

func (l *CascadeListener) Actions() []events.Action {
	return []events.Action{events.ActionDelete}
}

func (l *CascadeListener) Handle(ctx context.Context, ev events.Event) error {
	keepOldFiles := l.cleaner.KeepOldFiles(ev.BucketID, ev.CollectionID)
	field := ev.LinkField()
	if err := l.cleaner.DeleteLinked(ctx, field, ev.URI, keepOldFiles); err != nil {
		return fmt.Errorf("cascade %s delete: %w", ev.Kind, err)
	}
	l.logger.Debug().Str(field, ev.URI).Bool("keep_old_files", keepOldFiles).Msg("attachments cascaded")
	return nil
}

// AttachmentGuard vetoes record updates that change existing attachment
// metadata, unless the write comes from the attachment endpoints.
type AttachmentGuard struct {
	field string
}

func NewAttachmentGuard(field string) *AttachmentGuard {
	return &AttachmentGuard{field: field}
}

func (g *AttachmentGuard) Kinds() []events.Kind {
	return []events.Kind{events.KindRecord}
}

func (g *AttachmentGuard) Actions() []events.Action {
	return []events.Action{events.ActionUpdate}
}

func (g *AttachmentGuard) Handle(_ context.Context, ev events.Event) error {
	if ev.SystemOriginated {
		return nil
	}
	before, after := ev.Old[g.field], ev.New[g.field]
	if before == nil || after == nil {
		return nil
	}
	if !reflect.DeepEqual(before, after) {
		return ErrMetadataImmutable
	}
	return nil
}
