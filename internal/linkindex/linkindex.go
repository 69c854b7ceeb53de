// Package linkindex keeps the reverse lookup from records to stored blobs.
package linkindex

import (
	"Go_Attach/model"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrInvalidField is returned for a lookup field other than the three URIs.
var ErrInvalidField = errors.New("invalid link field")

var fields = map[string]struct{}{
	model.LinkFieldBucket:     {},
	model.LinkFieldCollection: {},
	model.LinkFieldRecord:     {},
}

// Index stores links in the attachment_link table.
type Index struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Index {
	return &Index{db: db}
}

func checkField(field string) error {
	if _, ok := fields[field]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

// Put records that link.Location belongs to link.RecordURI.
func (i *Index) Put(ctx context.Context, link *model.AttachmentLink) error {
	if err := i.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("create link: %w", err)
	}
	return nil
}

// List returns every link whose field equals uri, oldest first.
func (i *Index) List(ctx context.Context, field, uri string) ([]model.AttachmentLink, error) {
	if err := checkField(field); err != nil {
		return nil, err
	}
	var links []model.AttachmentLink
	err := i.db.WithContext(ctx).
		Where(field+" = ?", uri).
		Order("id").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

// DeleteAll removes every link whose field equals uri.
func (i *Index) DeleteAll(ctx context.Context, field, uri string) (int64, error) {
	if err := checkField(field); err != nil {
		return 0, err
	}
	result := i.db.WithContext(ctx).Where(field+" = ?", uri).Delete(&model.AttachmentLink{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete links: %w", result.Error)
	}
	return result.RowsAffected, nil
}
