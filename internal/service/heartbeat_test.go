package service

import (
	"Go_Attach/internal/storage"
	"Go_Attach/utils"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct {
	storage.Store
	saves int
}

func (s *brokenStore) Name() string { return "broken" }

func (s *brokenStore) Save(context.Context, []byte, string, storage.SaveOptions) (string, error) {
	s.saves++
	return "", errors.New("bucket unreachable")
}

type panickingStore struct {
	storage.Store
}

func (s *panickingStore) Name() string { return "panicking" }

func (s *panickingStore) Save(context.Context, []byte, string, storage.SaveOptions) (string, error) {
	panic("backend client nil")
}

type memoryCache struct {
	entries map[string][]byte
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return errors.New("miss")
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func TestAttachmentsPingWritesAndCleansUp(t *testing.T) {
	f := newFixture(t, nil)

	probe := AttachmentsPing(f.store, false, zerolog.Nop())
	assert.True(t, probe(context.Background()))

	_, err := os.Stat(filepath.Join(f.basePath, heartbeatFilename))
	assert.True(t, os.IsNotExist(err))
}

func TestAttachmentsPingFailure(t *testing.T) {
	store := &brokenStore{}
	assert.False(t, AttachmentsPing(store, false, zerolog.Nop())(context.Background()))
	assert.Equal(t, 1, store.saves)
}

func TestAttachmentsPingReadOnly(t *testing.T) {
	store := &brokenStore{}
	assert.True(t, AttachmentsPing(store, true, zerolog.Nop())(context.Background()))
	assert.Zero(t, store.saves)
}

func TestHeartbeatReport(t *testing.T) {
	cache := &memoryCache{entries: map[string][]byte{}}
	hb := NewHeartbeat(cache, time.Minute, zerolog.Nop())

	calls := 0
	hb.Register(CheckAttachments, func(context.Context) bool { calls++; return true })
	hb.Register(CheckStorage, PingProbe(CheckStorage, func(context.Context) error { return errors.New("down") }, zerolog.Nop()))

	report := hb.Report(context.Background())
	assert.Equal(t, map[string]bool{CheckAttachments: true, CheckStorage: false}, report)
	assert.False(t, Healthy(report))
	assert.Equal(t, []string{CheckAttachments, CheckStorage}, hb.Names())

	cached := hb.Report(context.Background())
	assert.Equal(t, report, cached)
	assert.Equal(t, 1, calls, "second report served from cache")
	assert.Contains(t, cache.entries, utils.CacheKeyHeartbeat)

	hb.Fresh(context.Background())
	assert.Equal(t, 2, calls)
}

func TestHeartbeatWithoutCache(t *testing.T) {
	hb := NewHeartbeat(nil, 0, zerolog.Nop())
	hb.Register(CheckAttachments, func(context.Context) bool { return true })
	assert.True(t, Healthy(hb.Report(context.Background())))
}

func TestAttachmentsPingRecoversPanic(t *testing.T) {
	probe := AttachmentsPing(&panickingStore{}, false, zerolog.Nop())

	var ok bool
	require.NotPanics(t, func() { ok = probe(context.Background()) })
	assert.False(t, ok)
}

func TestHeartbeatFreshReportsPanickingCheck(t *testing.T) {
	hb := NewHeartbeat(nil, 0, zerolog.Nop())
	hb.Register(CheckAttachments, func(context.Context) bool { return true })
	hb.Register(CheckCache, func(context.Context) bool { panic("redis client nil") })

	var report map[string]bool
	require.NotPanics(t, func() { report = hb.Fresh(context.Background()) })
	assert.Equal(t, map[string]bool{CheckAttachments: true, CheckCache: false}, report)
	assert.False(t, Healthy(report))
}
