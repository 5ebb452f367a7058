package statuscache

import (
	"time"

	"github.com/karlseguin/ccache"

	"github.com/spinops/spinwatch/pkg/statusdoc"
)

const (
	cacheTimeout = time.Second * 15
)

// SnapshotCache provides access to the last observed status document for a
// tracked request, keeping harness code from issuing an extra network fetch
// just to look at a snapshot it recently drove past.
type SnapshotCache interface {
	Last(requestID string) *statusdoc.Document
	Record(requestID string, doc statusdoc.Document)
}

type snapshotCache struct {
	cache *ccache.Cache
}

// New creates a bounded TTL cache of the most recent document per request.
func New() SnapshotCache {
	return &snapshotCache{
		cache: ccache.New(ccache.Configure().MaxSize(1000).ItemsToPrune(100)),
	}
}

// Last returns a copy of the most recently recorded document for requestID,
// or nil when nothing fresh is held.
func (c *snapshotCache) Last(requestID string) *statusdoc.Document {
	if requestID == "" {
		return nil
	}
	val := c.cache.Get(requestID)
	if val == nil || val.Expired() {
		return nil
	}
	cached, ok := val.Value().(statusdoc.Document)
	if !ok {
		return nil
	}

	// Copy to protect against misuse of the cached in-memory document.
	doc := cached.Clone()
	return &doc
}

// Record caches doc as the most recent snapshot observed for requestID.
// Parse-failure documents are not worth remembering.
func (c *snapshotCache) Record(requestID string, doc statusdoc.Document) {
	if requestID == "" || doc.ParseFailed() {
		return
	}
	c.cache.Set(requestID, doc.Clone(), cacheTimeout)
}
