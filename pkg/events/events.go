// Package events carries the engine's passive notifications: object and link
// lifecycle, query materialization, and cache activity. Listeners are
// optional; with none registered, emission is a no-op.
package events

// Event is implemented by every notification type.
type Event interface {
	EventName() string
}

// ObjectCreated is emitted after a staged create is applied.
type ObjectCreated struct {
	TypeAPIName string
	PrimaryKey  string
}

func (ObjectCreated) EventName() string { return "object.created" }

// ObjectUpdated is emitted after a staged update is applied.
type ObjectUpdated struct {
	TypeAPIName string
	PrimaryKey  string
	Properties  []string
}

func (ObjectUpdated) EventName() string { return "object.updated" }

// ObjectDeleted is emitted after a staged delete is applied.
type ObjectDeleted struct {
	TypeAPIName string
	PrimaryKey  string
}

func (ObjectDeleted) EventName() string { return "object.deleted" }

// LinkCreated is emitted after a staged link create is applied.
type LinkCreated struct {
	LinkTypeAPIName string
	SourcePK        string
	TargetPK        string
}

func (LinkCreated) EventName() string { return "link.created" }

// LinkDeleted is emitted after a staged link delete is applied.
type LinkDeleted struct {
	LinkTypeAPIName string
	SourcePK        string
	TargetPK        string
}

func (LinkDeleted) EventName() string { return "link.deleted" }

// QueryMaterialized is emitted once per plan materialization.
type QueryMaterialized struct {
	TypeAPIName string
	IndexUsed   bool
	ResultCount int
}

func (QueryMaterialized) EventName() string { return "query.materialized" }

// CacheHit is emitted on a cache hit, with the tier that served it.
type CacheHit struct {
	Key  string
	Tier int
}

func (CacheHit) EventName() string { return "cache.hit" }

// CacheMiss is emitted when no tier holds a live entry for the key.
type CacheMiss struct {
	Key string
}

func (CacheMiss) EventName() string { return "cache.miss" }

// Listener receives every emitted event. Implementations must not mutate
// engine state.
type Listener interface {
	OnEvent(Event)
}

// Emitter fans events out to listeners. The zero value is usable and silent.
type Emitter struct {
	listeners []Listener
}

// Subscribe adds a listener. Not safe for concurrent use with Emit; wire
// listeners up before the engine starts serving.
func (e *Emitter) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

// Emit delivers ev to every listener. Nil receivers are silent so components
// can hold an optional emitter without nil checks at every call site.
func (e *Emitter) Emit(ev Event) {
	if e == nil {
		return
	}
	for _, l := range e.listeners {
		l.OnEvent(ev)
	}
}
