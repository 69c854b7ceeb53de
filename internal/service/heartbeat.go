package service

import (
	"Go_Attach/internal/storage"
	"Go_Attach/utils"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Heartbeat check names.
const (
	CheckAttachments = "attachments"
	CheckStorage     = "storage"
	CheckCache       = "cache"
)

const heartbeatFilename = "heartbeat.json"

var heartbeatContent = []byte(`{"test": "write"}`)

// Probe reports whether a dependency is healthy. It must not panic.
type Probe func(ctx context.Context) bool

// Heartbeat runs the registered probes and caches the report.
type Heartbeat struct {
	mu     sync.RWMutex
	probes map[string]Probe
	cache  utils.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewHeartbeat builds an empty registry. cache may be nil.
func NewHeartbeat(cache utils.Cache, ttl time.Duration, logger zerolog.Logger) *Heartbeat {
	return &Heartbeat{
		probes: make(map[string]Probe),
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (h *Heartbeat) Register(name string, probe Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = probe
}

// Names lists registered checks.
func (h *Heartbeat) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report returns the cached report when available, otherwise runs every
// probe.
func (h *Heartbeat) Report(ctx context.Context) map[string]bool {
	if h.cache != nil && h.ttl > 0 {
		var cached map[string]bool
		if err := h.cache.Get(ctx, utils.CacheKeyHeartbeat, &cached); err == nil && cached != nil {
			return cached
		}
	}
	return h.Fresh(ctx)
}

// Fresh runs every probe concurrently and refreshes the cached report.
func (h *Heartbeat) Fresh(ctx context.Context) map[string]bool {
	h.mu.RLock()
	probes := make(map[string]Probe, len(h.probes))
	for name, probe := range h.probes {
		probes[name] = probe
	}
	h.mu.RUnlock()

	report := make(map[string]bool, len(probes))
	var rmu sync.Mutex
	var g errgroup.Group
	for name, probe := range probes {
		name, probe := name, probe
		g.Go(func() error {
			ok := h.run(ctx, name, probe)
			rmu.Lock()
			report[name] = ok
			rmu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if h.cache != nil && h.ttl > 0 {
		if err := h.cache.Set(ctx, utils.CacheKeyHeartbeat, report, h.ttl); err != nil {
			h.logger.Warn().Err(err).Msg("cache heartbeat report failed")
		}
	}
	return report
}

// run reports a panicking probe as a failed check.
func (h *Heartbeat) run(ctx context.Context, name string, probe Probe) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Str("check", name).Msg("heartbeat check panicked")
			ok = false
		}
	}()
	return probe(ctx)
}

// Healthy reports whether every check passed.
func Healthy(report map[string]bool) bool {
	for _, ok := range report {
		if !ok {
			return false
		}
	}
	return true
}

// AttachmentsPing writes then removes a probe file on the blob store.
// In read-only mode nothing is written and the check passes.
func AttachmentsPing(store storage.Store, readOnly bool, logger zerolog.Logger) Probe {
	return func(ctx context.Context) (ok bool) {
		if readOnly {
			return true
		}
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Str("backend", store.Name()).Msg("attachment heartbeat panicked")
				ok = false
			}
		}()
		location, err := store.Save(ctx, heartbeatContent, heartbeatFilename, storage.SaveOptions{
			Replace:    true,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Extensions: []string{"json"},
		})
		if err != nil {
			logger.Error().Err(err).Str("backend", store.Name()).Msg("attachment heartbeat write failed")
			return false
		}
		if err := store.Delete(ctx, location); err != nil {
			logger.Error().Err(err).Str("backend", store.Name()).Msg("attachment heartbeat delete failed")
			return false
		}
		return true
	}
}

// PingProbe adapts a Ping-style health check.
func PingProbe(name string, ping func(ctx context.Context) error, logger zerolog.Logger) Probe {
	return func(ctx context.Context) bool {
		if err := ping(ctx); err != nil {
			logger.Error().Err(err).Str("check", name).Msg("heartbeat check failed")
			return false
		}
		return true
	}
}
