package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/titan/engine/core"
	"github.com/spaghettifunk/titan/engine/rhi"
)

// ShaderLibrary loads compiled .spv shader modules from a directory and
// watches it for recompilation. When a watched file is rewritten, every
// pipeline built from its modules is evicted from the cache so the next
// lookup recompiles against the fresh bytecode.
type ShaderLibrary struct {
	device *rhi.Device
	cache  *rhi.PipelineCache
	dir    string

	// module IDs created per source path, for cache eviction on rewrite.
	modules map[string][]string
	mutex   sync.RWMutex

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	isClosed bool
}

func NewShaderLibrary(device *rhi.Device, cache *rhi.PipelineCache) (*ShaderLibrary, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &ShaderLibrary{
		device:   device,
		cache:    cache,
		modules:  make(map[string][]string),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}, nil
}

// Initialize points the library at a shader directory and starts the watch
// loop. All sub-directories are watched too.
func (sl *ShaderLibrary) Initialize(dir string) error {
	sl.dir = dir

	if err := sl.watchRecursive(dir); err != nil {
		return err
	}
	go sl.start()

	return nil
}

// Load reads <dir>/<name>.spv and creates a shader module for the given
// stage. The module is registered for invalidation when its file changes.
func (sl *ShaderLibrary) Load(name string, stage rhi.ShaderStage, entryPoint string) (*rhi.ShaderModule, error) {
	path := filepath.Join(sl.dir, fmt.Sprintf("%s.spv", name))

	bytecode, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader library: reading %s: %w", path, err)
	}

	module, err := sl.device.CreateShaderModule(name, stage, bytecode, entryPoint)
	if err != nil {
		return nil, err
	}
	module.Path = path

	sl.mutex.Lock()
	sl.modules[path] = append(sl.modules[path], module.ID())
	sl.mutex.Unlock()

	return module, nil
}

func (sl *ShaderLibrary) start() {
	for {
		select {
		case e := <-sl.fsnotify.Events:
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					sl.watchRecursive(e.Name)
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				sl.handleRewrite(e.Name)
			}
			if e.Op&fsnotify.Remove != 0 {
				sl.forget(e.Name)
			}

		case e := <-sl.fsnotify.Errors:
			core.LogError(e.Error())

		case <-sl.done:
			sl.fsnotify.Close()
			return
		}
	}
}

// handleRewrite evicts every cached pipeline built from the rewritten file's
// modules. The modules stay registered: the next cache miss recompiles.
func (sl *ShaderLibrary) handleRewrite(path string) {
	if !strings.HasSuffix(path, ".spv") {
		return
	}

	sl.mutex.RLock()
	moduleIDs := sl.modules[path]
	sl.mutex.RUnlock()
	if len(moduleIDs) == 0 {
		return
	}

	core.LogInfo("shader library: %s rewritten, evicting %d module(s) from the pipeline cache", path, len(moduleIDs))
	for _, id := range moduleIDs {
		sl.cache.InvalidateModule(id)
	}
}

func (sl *ShaderLibrary) forget(path string) {
	sl.mutex.Lock()
	defer sl.mutex.Unlock()
	delete(sl.modules, path)
}

// watchRecursive runs on both the caller's goroutine (Initialize) and the
// watch loop (directory creation events), so the closed flag read takes the
// lock.
func (sl *ShaderLibrary) watchRecursive(path string) error {
	sl.mutex.RLock()
	closed := sl.isClosed
	sl.mutex.RUnlock()
	if closed {
		return fmt.Errorf("shader library already closed")
	}
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return sl.fsnotify.Add(walkPath)
		}
		return nil
	})
}

func (sl *ShaderLibrary) Shutdown() {
	sl.mutex.Lock()
	defer sl.mutex.Unlock()
	if sl.isClosed {
		return
	}
	sl.isClosed = true
	close(sl.done)
}
