// Package events dispatches resource change notifications to listeners.
//
// Dispatch runs synchronously in the caller's goroutine. Listeners are
// registered at startup; Register must not race with Dispatch.
package events

import (
	"Go_Attach/model"
	"context"
)

type Kind string

const (
	KindBucket     Kind = "bucket"
	KindCollection Kind = "collection"
	KindRecord     Kind = "record"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event describes one change. Old and New carry record data for record
// events; either may be nil.
type Event struct {
	Kind             Kind           `json:"resource_name"`
	Action           Action         `json:"action"`
	BucketID         string         `json:"bucket_id"`
	CollectionID     string         `json:"collection_id,omitempty"`
	RecordID         string         `json:"id,omitempty"`
	URI              string         `json:"uri"`
	Timestamp        int64          `json:"timestamp"`
	Old              map[string]any `json:"old,omitempty"`
	New              map[string]any `json:"new,omitempty"`
	SystemOriginated bool           `json:"system_originated"`
}

// Path returns the record path of a record event.
func (e Event) Path() model.RecordPath {
	return model.RecordPath{BucketID: e.BucketID, CollectionID: e.CollectionID, RecordID: e.RecordID}
}

// LinkField returns the link index field matching the event kind.
func (e Event) LinkField() string {
	switch e.Kind {
	case KindBucket:
		return model.LinkFieldBucket
	case KindCollection:
		return model.LinkFieldCollection
	default:
		return model.LinkFieldRecord
	}
}

// Listener reacts to a subset of events. Empty Kinds or Actions match all.
type Listener interface {
	Kinds() []Kind
	Actions() []Action
	Handle(ctx context.Context, ev Event) error
}

// Dispatcher fans events out to registered listeners in registration order.
type Dispatcher struct {
	listeners []Listener
}

func NewDispatcher(listeners ...Listener) *Dispatcher {
	return &Dispatcher{listeners: listeners}
}

func (d *Dispatcher) Register(l Listener) {
	d.listeners = append(d.listeners, l)
}

// Dispatch stops at the first listener error and returns it.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	if d == nil {
		return nil
	}
	for _, l := range d.listeners {
		if !matchKind(l.Kinds(), ev.Kind) || !matchAction(l.Actions(), ev.Action) {
			continue
		}
		if err := l.Handle(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func matchKind(kinds []Kind, kind Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func matchAction(actions []Action, action Action) bool {
	if len(actions) == 0 {
		return true
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
