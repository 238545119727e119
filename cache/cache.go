// Package cache provides the job-scoped ResultCache backing strict-once mode,
// which guarantees at most one invocation per distinct input row.
package cache

import (
	"bytes"
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/docker/docker/pkg/locker"
	rest "github.com/go-sif/sif-rest"
	"github.com/pierrec/lz4"
)

// Config configures a ResultCache
type Config struct {
	NumShards      int  // number of independently locked maps. Defaults to 16.
	CompressBodies bool // iff true, cached bodies are stored lz4-compressed
}

// ResultCache maps canonical row keys to the Response obtained for that row.
// Entries are created lazily on the first invocation of a row, never evicted
// while the job runs, and discarded by Destroy. Callers for the same key are
// serialized by a per-key lock, so a key is invoked at most once; callers for
// different keys never wait on each other.
type ResultCache struct {
	config *Config
	shards []*shard
	plocks *locker.Locker
	hits   int64
	misses int64
}

type shard struct {
	lock    sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	statusCode int
	body       []byte
	compressed bool
	err        error
}

// New produces a ResultCache
func New(config *Config) *ResultCache {
	if config == nil {
		config = &Config{}
	}
	if config.NumShards <= 0 {
		config.NumShards = 16
	}
	shards := make([]*shard, config.NumShards)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return &ResultCache{
		config: config,
		shards: shards,
		plocks: locker.New(),
	}
}

func (c *ResultCache) shardFor(key string) *shard {
	return c.shards[xxhash.Sum64String(key)%uint64(len(c.shards))]
}

// GetOrInvoke returns the cached Response for row if one exists, and otherwise
// calls invoke and stores its Response before returning it. The boolean result is
// true iff the Response came from the cache. Responses interrupted by cancellation
// of ctx are returned but not stored, since they are not the endpoint's answer.
func (c *ResultCache) GetOrInvoke(ctx context.Context, row rest.InputRow, invoke rest.InvokerFunc) (*rest.Response, bool) {
	key, err := row.CanonicalKey()
	if err != nil {
		log.Printf("Unable to compute cache key for row, invoking without cache: %v", err)
		return invoke(ctx, row), false
	}
	c.plocks.Lock(key)
	defer func() {
		if err := c.plocks.Unlock(key); err != nil {
			log.Printf("Unable to release cache lock: %v", err)
		}
	}()

	s := c.shardFor(key)
	s.lock.RLock()
	e, ok := s.entries[key]
	s.lock.RUnlock()
	if ok {
		if resp, err := c.toResponse(e); err == nil {
			atomic.AddInt64(&c.hits, 1)
			return resp, true
		}
		log.Printf("Unable to decompress cached response, invoking again: %v", err)
	}

	atomic.AddInt64(&c.misses, 1)
	resp := invoke(ctx, row)
	if isCancellation(resp.Err) {
		return resp, false
	}
	stored, err := c.toEntry(resp)
	if err != nil {
		log.Printf("Unable to compress response for cache: %v", err)
		return resp, false
	}
	s.lock.Lock()
	s.entries[key] = stored
	s.lock.Unlock()
	return resp, false
}

// Len returns the number of cached entries
func (c *ResultCache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.lock.RLock()
		total += len(s.entries)
		s.lock.RUnlock()
	}
	return total
}

// Hits returns the number of lookups answered from the cache
func (c *ResultCache) Hits() int64 {
	return atomic.LoadInt64(&c.hits)
}

// Misses returns the number of lookups which required an invocation
func (c *ResultCache) Misses() int64 {
	return atomic.LoadInt64(&c.misses)
}

// Destroy discards all entries. The ResultCache remains usable, but empty.
func (c *ResultCache) Destroy() {
	for _, s := range c.shards {
		s.lock.Lock()
		s.entries = make(map[string]*entry)
		s.lock.Unlock()
	}
}

func (c *ResultCache) toEntry(resp *rest.Response) (*entry, error) {
	e := &entry{statusCode: resp.StatusCode, body: resp.Body, err: resp.Err}
	if c.config.CompressBodies && len(resp.Body) > 0 {
		compressed, err := compress(resp.Body)
		if err != nil {
			return nil, err
		}
		e.body = compressed
		e.compressed = true
	}
	return e, nil
}

func (c *ResultCache) toResponse(e *entry) (*rest.Response, error) {
	body := e.body
	if e.compressed {
		decompressed, err := decompress(e.body)
		if err != nil {
			return nil, err
		}
		body = decompressed
	}
	return &rest.Response{StatusCode: e.statusCode, Body: body, Err: e.err}, nil
}

func compress(data []byte) ([]byte, error) {
	buff := new(bytes.Buffer)
	w := lz4.NewWriter(buff)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
}

// isCancellation is true only for the bare context error of an interrupted job.
// Typed failures, including timeouts wrapping a deadline, are the row's outcome.
func isCancellation(err error) bool {
	return err == context.Canceled || err == context.DeadlineExceeded
}

// cachingInvoker decorates an Invoker with a ResultCache
type cachingInvoker struct {
	next  rest.Invoker
	cache *ResultCache
}

// Decorate returns an Invoker which answers from c when possible, and otherwise delegates to next
func Decorate(next rest.Invoker, c *ResultCache) rest.Invoker {
	return &cachingInvoker{next: next, cache: c}
}

// Invoke answers from the cache, or delegates to the wrapped Invoker
func (ci *cachingInvoker) Invoke(ctx context.Context, row rest.InputRow) *rest.Response {
	resp, _ := ci.cache.GetOrInvoke(ctx, row, ci.next.Invoke)
	return resp
}
