package service

import (
	"Go_Attach/internal/codec"
	"Go_Attach/internal/recordstore"
	"Go_Attach/internal/settings"
	"Go_Attach/internal/storage"
	"Go_Attach/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"path"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// Side-channel multipart fields accepted next to the file part.
const (
	FieldData        = "data"
	FieldPermissions = "permissions"
)

const defaultContentType = "application/octet-stream"

// LinkIndex is the subset of the link index used by the coordinator.
type LinkIndex interface {
	Put(ctx context.Context, link *model.AttachmentLink) error
	List(ctx context.Context, field, uri string) ([]model.AttachmentLink, error)
	DeleteAll(ctx context.Context, field, uri string) (int64, error)
}

// RecordStore is the subset of the record store used by the coordinator.
type RecordStore interface {
	GetRecord(ctx context.Context, path model.RecordPath) (*model.Record, error)
	PatchRecord(ctx context.Context, path model.RecordPath, patch recordstore.Patch, opts recordstore.WriteOptions) (*model.Record, error)
	UpsertRecord(ctx context.Context, path model.RecordPath, patch recordstore.Patch, opts recordstore.WriteOptions) (*model.Record, error)
}

// FileContent is an uploaded file part.
type FileContent struct {
	Filename    string
	ContentType string
	Content     []byte
}

// UploadRequest carries one upload. Randomize and Gzipped override the
// resolved settings when set.
type UploadRequest struct {
	Path      model.RecordPath
	File      *FileContent
	Fields    map[string]string
	Randomize *bool
	Gzipped   *bool
}

// SaveFileOptions drives SaveFile.
type SaveFileOptions struct {
	Folder    string
	Randomize bool
	Gzipped   bool
	Replace   bool
	KeepLink  bool
}

// Coordinator keeps blobs, record metadata and links consistent.
// It holds no locks; concurrent uploads to one record rely on the record
// store's own update serialization.
type Coordinator struct {
	settings *settings.Settings
	store    storage.Store
	links    LinkIndex
	records  RecordStore
	field    string
	logger   zerolog.Logger
}

func NewCoordinator(s *settings.Settings, store storage.Store, links LinkIndex, records RecordStore, field string) *Coordinator {
	if field == "" {
		field = "attachment"
	}
	return &Coordinator{
		settings: s,
		store:    store,
		links:    links,
		records:  records,
		field:    field,
		logger:   zerolog.Nop(),
	}
}

// SetLogger replaces the default no-op logger.
func (c *Coordinator) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// Field returns the record field holding attachment metadata.
func (c *Coordinator) Field() string {
	return c.field
}

// Settings returns the resolved option table.
func (c *Coordinator) Settings() *settings.Settings {
	return c.settings
}

// KeepOldFiles resolves keep_old_files for a bucket and collection.
func (c *Coordinator) KeepOldFiles(bucketID, collectionID string) bool {
	return c.settings.Bool(settings.KeepOldFiles, bucketID, collectionID)
}

// Upload attaches a file to a record, replacing any previous attachment.
// Validation runs first so that a rejected upload mutates nothing.
func (c *Coordinator) Upload(ctx context.Context, req UploadRequest) (*model.Attachment, error) {
	bid, cid := req.Path.BucketID, req.Path.CollectionID
	randomize := pick(req.Randomize, c.settings.Bool(settings.Randomize, bid, cid))
	gzipped := pick(req.Gzipped, c.settings.Bool(settings.Gzipped, bid, cid))

	patch, err := c.validate(req)
	if err != nil {
		return nil, err
	}

	keepOldFiles := c.KeepOldFiles(bid, cid)
	if !keepOldFiles {
		if err := c.DeleteLinked(ctx, model.LinkFieldRecord, req.Path.RecordURI(), false); err != nil {
			return nil, err
		}
	}

	attachment, err := c.SaveFile(ctx, req.Path, *req.File, SaveFileOptions{
		Folder:    c.folder(req.Path),
		Randomize: randomize,
		Gzipped:   gzipped,
		KeepLink:  true,
	})
	if err != nil {
		return nil, err
	}

	patch.Data[c.field] = attachment
	if _, err := c.records.UpsertRecord(ctx, req.Path, patch, recordstore.WriteOptions{SystemOriginated: true}); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	c.logger.Debug().
		Str("record", req.Path.RecordURI()).
		Str("location", attachment.Location).
		Bool("gzipped", gzipped).
		Msg("attachment saved")
	return attachment, nil
}

// validate checks the file part and side-channel fields and returns the
// record patch they describe.
func (c *Coordinator) validate(req UploadRequest) (recordstore.Patch, error) {
	patch := recordstore.Patch{Data: map[string]any{}}
	if req.File == nil || strings.TrimSpace(req.File.Filename) == "" {
		return patch, invalid("body", "Filename is required.")
	}

	names := make([]string, 0, len(req.Fields))
	for name := range req.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var value map[string]any
		switch name {
		case FieldData, FieldPermissions:
			if err := json.Unmarshal([]byte(req.Fields[name]), &value); err != nil {
				return patch, invalid("body", fmt.Sprintf("%s is not valid JSON (%s)", name, err))
			}
		default:
			return patch, invalid("body", fmt.Sprintf("'%s' not in ('%s', '%s')", name, FieldData, FieldPermissions))
		}
		if name == FieldData && value != nil {
			patch.Data = value
		}
		if name == FieldPermissions {
			patch.Permissions = value
		}
	}

	if !c.store.Allowed(req.File.Filename, nil) {
		return patch, invalid("body", "File extension is not allowed.")
	}
	return patch, nil
}

// SaveFile hashes, optionally compresses and stores one file, then records
// its link unless opts.KeepLink is false. It does not touch the record.
func (c *Coordinator) SaveFile(ctx context.Context, target model.RecordPath, file FileContent, opts SaveFileOptions) (*model.Attachment, error) {
	if strings.TrimSpace(file.Filename) == "" {
		return nil, invalid("body", "Filename is required.")
	}
	contentType := c.resolveMimetype(target, file)
	payload, err := codec.Process(file.Content, contentType, file.Filename, opts.Gzipped)
	if err != nil {
		return nil, fmt.Errorf("process attachment: %w", err)
	}

	saveOpts := storage.SaveOptions{
		Folder:    opts.Folder,
		Randomize: opts.Randomize,
		Replace:   opts.Replace,
		Headers:   map[string]string{"Content-Type": payload.Mimetype},
	}
	if opts.Gzipped {
		saveOpts.Extensions = []string{strings.TrimPrefix(codec.GzipExtension, ".")}
	}
	location, err := c.store.Save(ctx, payload.Content, payload.Filename, saveOpts)
	if errors.Is(err, storage.ErrFileNotAllowed) {
		return nil, invalid("body", "File extension is not allowed.")
	}
	if err != nil {
		return nil, fmt.Errorf("save attachment: %w", err)
	}

	attachment := &model.Attachment{
		Filename: payload.Filename,
		Location: c.store.URL(location),
		Hash:     payload.Hash,
		Mimetype: payload.Mimetype,
		Size:     payload.Size,
		Original: payload.Original,
	}
	if opts.KeepLink {
		link := &model.AttachmentLink{
			Location:      location,
			BucketURI:     target.BucketURI(),
			CollectionURI: target.CollectionURI(),
			RecordURI:     target.RecordURI(),
		}
		if err := c.links.Put(ctx, link); err != nil {
			return nil, err
		}
	}
	return attachment, nil
}

// DeleteLinked removes the blobs linked under field=uri, unless
// keepOldFiles, then always drops the links. Blob deletion is best-effort.
func (c *Coordinator) DeleteLinked(ctx context.Context, field, uri string, keepOldFiles bool) error {
	if !keepOldFiles {
		links, err := c.links.List(ctx, field, uri)
		if err != nil {
			return err
		}
		for _, link := range links {
			if err := c.store.Delete(ctx, link.Location); err != nil {
				c.logger.Warn().Err(err).Str("location", link.Location).Str(field, uri).Msg("delete attachment blob failed")
			}
		}
	}
	if _, err := c.links.DeleteAll(ctx, field, uri); err != nil {
		return err
	}
	return nil
}

// Detach removes the attachment of an existing record and nulls its field.
// A record without attachment is left untouched.
func (c *Coordinator) Detach(ctx context.Context, target model.RecordPath) error {
	record, err := c.records.GetRecord(ctx, target)
	if err != nil {
		return err
	}
	keepOldFiles := c.KeepOldFiles(target.BucketID, target.CollectionID)
	if err := c.DeleteLinked(ctx, model.LinkFieldRecord, target.RecordURI(), keepOldFiles); err != nil {
		return err
	}

	data, err := recordstore.Decode(record.Data)
	if err != nil {
		return err
	}
	if data[c.field] == nil {
		return nil
	}
	patch := recordstore.Patch{Data: map[string]any{c.field: nil}}
	if _, err := c.records.PatchRecord(ctx, target, patch, recordstore.WriteOptions{SystemOriginated: true}); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// folder expands the folder template for a record.
func (c *Coordinator) folder(target model.RecordPath) string {
	template := c.settings.String(settings.Folder, target.BucketID, target.CollectionID)
	if template == "" {
		return ""
	}
	return strings.NewReplacer(
		"{bucket_id}", target.BucketID,
		"{collection_id}", target.CollectionID,
		"{record_id}", target.RecordID,
		"{id}", target.RecordID,
	).Replace(template)
}

// resolveMimetype prefers the part's own type, then the extension, then
// content sniffing. Configured extension overrides always win.
func (c *Coordinator) resolveMimetype(target model.RecordPath, file FileContent) string {
	ext := strings.ToLower(path.Ext(file.Filename))
	contentType := strings.TrimSpace(file.ContentType)
	if contentType == "" || contentType == defaultContentType {
		if byExt := mime.TypeByExtension(ext); ext != "" && byExt != "" {
			contentType = stripParams(byExt)
		} else {
			contentType = stripParams(mimetype.Detect(file.Content).String())
		}
	}
	if override, ok := c.settings.Mimetypes(target.BucketID, target.CollectionID)[ext]; ok {
		contentType = override
	}
	return contentType
}

func stripParams(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return contentType
}

func pick(override *bool, def bool) bool {
	if override != nil {
		return *override
	}
	return def
}
