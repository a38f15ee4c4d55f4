// Package engine is the embedding surface per §10.1/§10.4: it wraps a
// single vm.Realm with the lifecycle an embedder actually drives --
// create, install the runtime library, load a persisted bytecode
// cache, call the result, collect -- the way the teacher's pkg/driver
// wraps a VM, checker, and compiler behind Paserati's session API, but
// without a source-level front end: this engine only ever runs
// bytecode that already exists on disk.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"suzaku/pkg/bytecode"
	"suzaku/pkg/object"
	"suzaku/pkg/runtime"
	"suzaku/pkg/value"
	"suzaku/pkg/vm"
)

// Engine is one realm plus the bookkeeping an embedder needs around it.
// Two Engines never share state, mirroring the Realm isolation §5
// requires of the VM underneath.
type Engine struct {
	Realm *vm.Realm
	log   *slog.Logger

	lastChunk *bytecode.Chunk // most recently loaded chunk, for CacheSites
}

// New creates an engine with a fresh realm and installs the runtime
// library (the Error family, String.prototype, RegExp) onto it. A nil
// logger falls back to Realm's own slog.Default() behavior.
func New(log *slog.Logger) *Engine {
	r := vm.NewRealm(log)
	runtime.Install(r)
	e := &Engine{Realm: r, log: r.Log}
	e.log.Info("engine realm started", "realm_id", r.ID)
	return e
}

// ID reports the realm's identity, the same uuid §10.2 tags GC-cycle
// and cache-load log lines with so multi-realm embedders can tell them
// apart in a shared log stream.
func (e *Engine) ID() uuid.UUID { return e.Realm.ID }

// Load decodes a persisted bytecode cache file and returns its entry
// point as a callable Value, ready for Call. It does not run anything:
// loading and calling are separate steps, per §10.3's cache-as-artifact
// design -- an embedder may load once and call many times.
func (e *Engine) Load(data []byte) (value.Value, error) {
	cf, err := bytecode.DecodeCacheFile(data)
	if err != nil {
		return value.Undefined, fmt.Errorf("engine: decoding cache file: %w", err)
	}
	return e.loadCacheFile(cf)
}

func (e *Engine) loadCacheFile(cf *bytecode.CacheFile) (value.Value, error) {
	consts, err := cf.DecodeConsts()
	if err != nil {
		return value.Undefined, fmt.Errorf("engine: %w", err)
	}
	proto := &bytecode.FunctionProto{
		Name:     "<cached entry>",
		Code:     cf.Code,
		Consts:   consts,
		RegCount: int(cf.RegCount),
	}
	chunk := &bytecode.Chunk{
		Functions: []*bytecode.FunctionProto{proto},
		EntryFunc: 0,
		Caches:    make([]object.InlineCache, cf.CacheCount),
	}
	closure := vm.NewClosure(proto, chunk, nil)
	e.lastChunk = chunk
	e.log.Debug("loaded cache file", "realm_id", e.Realm.ID, "consts", len(consts), "cache_sites", cf.CacheCount, "code_words", len(cf.Code))
	return vm.NewClosureValue(closure), nil
}

// CacheSites returns the inline-cache table of the most recently loaded
// chunk, the hit/miss census cmd/enginecli's stats subcommand reports.
// Nil until Load or Run has been called at least once.
func (e *Engine) CacheSites() []object.InlineCache {
	if e.lastChunk == nil {
		return nil
	}
	return e.lastChunk.Caches
}

// Run loads a cache file and immediately calls its entry point with no
// `this` and no arguments, the shape cmd/enginecli's run subcommand
// needs for a standalone bytecode file with no embedder-supplied
// calling convention of its own.
func (e *Engine) Run(data []byte) (value.Value, error) {
	entry, err := e.Load(data)
	if err != nil {
		return value.Undefined, err
	}
	result, err := e.Realm.Call(entry, value.Undefined, nil)
	if err != nil {
		e.log.Error("script raised", "realm_id", e.Realm.ID, "error", err)
		return value.Undefined, err
	}
	return result, nil
}

// Collect runs one GC cycle and logs the resulting live-object census,
// the diagnostics hook §10.1 asks ambient logging to cover even though
// cell.Heap.Collect itself stays silent.
func (e *Engine) Collect() {
	e.Realm.Collect()
	stats := e.Realm.HeapStats()
	e.log.Debug("gc cycle", "realm_id", e.Realm.ID, "collections", stats.Collections, "live_by_kind", stats.LiveByKind)
}
