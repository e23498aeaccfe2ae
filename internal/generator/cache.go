package generator

import (
	"fmt"
	"log/slog"
	"sync"

	"wan-videogen/internal/pipeline"
	"wan-videogen/internal/wan"
)

type Builder func(task, checkpointDir string, deviceID int) (*Generator, error)

func NewBuilder(tables *wan.Tables, loaders map[wan.Family]pipeline.Loader) Builder {
	return func(task, checkpointDir string, deviceID int) (*Generator, error) {
		return NewGenerator(tables, loaders, task, checkpointDir, deviceID)
	}
}

// PipelineCache keeps one Generator per (task, checkpoint dir, device) for the
// lifetime of the cache. Entries are never evicted. The lock is not held while
// a generator is built, so two callers racing on the same new key both build
// one; the first stored wins and the other is released.
type PipelineCache struct {
	lock       sync.Mutex
	generators map[string]*Generator
	build      Builder
}

func NewPipelineCache(build Builder) *PipelineCache {
	return &PipelineCache{
		generators: make(map[string]*Generator),
		build:      build,
	}
}

func CacheKey(task, checkpointDir string, deviceID int) string {
	return fmt.Sprintf("%s_%s_%d", task, checkpointDir, deviceID)
}

func (c *PipelineCache) Acquire(task, checkpointDir string, deviceID int) (*Generator, error) {
	key := CacheKey(task, checkpointDir, deviceID)

	c.lock.Lock()
	gen, exists := c.generators[key]
	c.lock.Unlock()

	if exists {
		slog.Info("using cached generator", "key", key)
		return gen, nil
	}

	slog.Info("creating new generator, first run will be slow", "key", key)
	gen, err := c.build(task, checkpointDir, deviceID)
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if existing, ok := c.generators[key]; ok {
		gen.Release()
		return existing, nil
	}
	c.generators[key] = gen

	return gen, nil
}

func (c *PipelineCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.generators)
}

// Close releases every cached pipeline. Call it once at process teardown.
func (c *PipelineCache) Close() {
	c.lock.Lock()
	defer c.lock.Unlock()

	for key, gen := range c.generators {
		gen.Release()
		delete(c.generators, key)
	}
}
