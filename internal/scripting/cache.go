// Package scripting implements the content-addressed bytecode compilation
// cache (C3), grounded on GS2ScriptManager.cpp's semantics: synchronous
// compile-and-insert is the default path; an async worker-pool path exists
// for the future but is only reachable from the NC (scripting-host) peer
// class today, exactly as in the original where queueCompileJob is defined
// but never called from compileScript.
package scripting

import (
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

// ThreadPoolWorkers mirrors THREADPOOL_WORKERS from the original — the
// default size of the async compile worker pool.
const ThreadPoolWorkers = 4

// Artifact is a compiled script: either a usable bytecode proto, or (on a
// compile error) a sentinel carrying the error so repeated lookups for the
// same broken source don't recompile it.
type Artifact struct {
	Proto *lua.FunctionProto
	Err   error
}

// entry is one cache slot: the artifact once ready, plus callbacks waiting
// on an in-flight compile (single-flight coalescing of concurrent requests
// for the same source text).
type entry struct {
	ready   bool
	art     Artifact
	waiters []func(Artifact)
}

// Callback is invoked once a script's artifact is available — synchronously,
// on the caller's goroutine, for the sync path; from RunQueue for the async
// path.
type Callback func(Artifact)

// Cache is the content-addressed bytecode cache. Entries are permanent for
// the server's lifetime — nothing ever evicts a compiled script.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	jobs chan compileJob
	wg   sync.WaitGroup

	cbQueueMu sync.Mutex
	cbQueue   []queuedCallback

	log *zap.Logger
}

type compileJob struct {
	source string
}

type queuedCallback struct {
	cb  Callback
	art Artifact
}

// NewCache starts a Cache with an n-worker async compile pool. n <= 0
// defaults to ThreadPoolWorkers.
func NewCache(n int, log *zap.Logger) *Cache {
	if n <= 0 {
		n = ThreadPoolWorkers
	}
	c := &Cache{
		entries: make(map[string]*entry),
		jobs:    make(chan compileJob, 64),
		log:     log,
	}
	for i := 0; i < n; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c
}

// CompileScript is the default entry point (compileScript in the
// original): check the cache first and call back immediately on a hit;
// otherwise compile synchronously and insert before calling back.
func (c *Cache) CompileScript(source string, cb Callback) {
	c.mu.Lock()
	if e, ok := c.entries[source]; ok && e.ready {
		art := e.art
		c.mu.Unlock()
		cb(art)
		return
	}
	c.mu.Unlock()

	c.syncCompileJob(source, cb)
}

// syncCompileJob compiles inline and inserts into the cache, then invokes
// the callback with the inserted artifact — ported from syncCompileJob.
func (c *Cache) syncCompileJob(source string, cb Callback) {
	art := compile(source)

	c.mu.Lock()
	e, ok := c.entries[source]
	if !ok {
		e = &entry{}
		c.entries[source] = e
	}
	if !e.ready {
		e.ready = true
		e.art = art
	}
	art = e.art
	waiters := e.waiters
	e.waiters = nil
	c.mu.Unlock()

	cb(art)
	for _, w := range waiters {
		w(art)
	}
}

// CompileScriptAsync queues a compile job onto the worker pool, matching
// queueCompileJob's structure — present for completeness but reachable
// only from NC-peer compile requests, not the default client path.
// Concurrent requests for the same not-yet-ready source coalesce onto a
// single compile: later callers become waiters instead of recompiling.
func (c *Cache) CompileScriptAsync(source string, cb Callback) {
	c.mu.Lock()
	if e, ok := c.entries[source]; ok {
		if e.ready {
			art := e.art
			c.mu.Unlock()
			c.enqueueCallback(cb, art)
			return
		}
		e.waiters = append(e.waiters, cb)
		c.mu.Unlock()
		return
	}
	c.entries[source] = &entry{waiters: []func(Artifact){cb}}
	c.mu.Unlock()

	c.jobs <- compileJob{source: source}
}

func (c *Cache) worker() {
	defer c.wg.Done()
	for job := range c.jobs {
		art := compile(job.source)

		c.mu.Lock()
		e := c.entries[job.source]
		if !e.ready {
			e.ready = true
			e.art = art
		}
		art = e.art
		waiters := e.waiters
		e.waiters = nil
		c.mu.Unlock()

		c.cbQueueMu.Lock()
		for _, w := range waiters {
			c.cbQueue = append(c.cbQueue, queuedCallback{cb: w, art: art})
		}
		c.cbQueueMu.Unlock()
	}
}

func (c *Cache) enqueueCallback(cb Callback, art Artifact) {
	c.cbQueueMu.Lock()
	c.cbQueue = append(c.cbQueue, queuedCallback{cb: cb, art: art})
	c.cbQueueMu.Unlock()
}

// RunQueue drains completed async callbacks onto the caller's goroutine —
// meant to be called once per main-loop tick (runQueue in the original).
// It swaps the queue under lock and runs callbacks outside it, so a
// callback that itself queues more async work doesn't deadlock.
func (c *Cache) RunQueue() {
	c.cbQueueMu.Lock()
	if len(c.cbQueue) == 0 {
		c.cbQueueMu.Unlock()
		return
	}
	pending := c.cbQueue
	c.cbQueue = nil
	c.cbQueueMu.Unlock()

	for _, item := range pending {
		item.cb(item.art)
	}
}

// Close stops the worker pool. Safe to call once, after which no further
// CompileScriptAsync calls may be made.
func (c *Cache) Close() {
	close(c.jobs)
	c.wg.Wait()
}

// compile parses and compiles source into a gopher-lua FunctionProto
// without executing it — the cache stores bytecode, it never runs scripts
// itself (that's the scripting runtime's job, out of scope per spec
// Non-goals).
func compile(source string) Artifact {
	chunk, err := parse.Parse(strings.NewReader(source), "script")
	if err != nil {
		return Artifact{Err: fmt.Errorf("scripting: parse: %w", err)}
	}
	proto, err := lua.Compile(chunk, "script")
	if err != nil {
		return Artifact{Err: fmt.Errorf("scripting: compile: %w", err)}
	}
	return Artifact{Proto: proto}
}
