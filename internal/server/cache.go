package server

import (
	"fmt"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/temirov/sdmap/internal/catalog"
)

type cachedDocument struct {
	modTime time.Time
	size    int64
	catalog catalog.Catalog
}

// documentCache keeps parsed documents by path. An entry is reused only while the
// file's modification time and size are unchanged.
type documentCache struct {
	mutex   sync.Mutex
	entries *lru.Cache[string, cachedDocument]
}

func newDocumentCache(size int) (*documentCache, error) {
	entries, err := lru.New[string, cachedDocument](size)
	if err != nil {
		return nil, fmt.Errorf("create document cache: %w", err)
	}
	return &documentCache{entries: entries}, nil
}

func (cache *documentCache) load(documentPath string) (catalog.Catalog, error) {
	info, statErr := os.Stat(documentPath)
	if statErr != nil {
		cache.entries.Remove(documentPath)
		return catalog.Catalog{}, fmt.Errorf("stat index document %s: %w", documentPath, statErr)
	}

	cache.mutex.Lock()
	defer cache.mutex.Unlock()
	if cached, found := cache.entries.Get(documentPath); found && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.catalog, nil
	}
	loaded, loadErr := catalog.Load(documentPath)
	if loadErr != nil {
		return catalog.Catalog{}, loadErr
	}
	cache.entries.Add(documentPath, cachedDocument{modTime: info.ModTime(), size: info.Size(), catalog: loaded})
	return loaded, nil
}

func (cache *documentCache) len() int {
	return cache.entries.Len()
}
