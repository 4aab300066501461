package server

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/sqlra/internal/pipeline"
	"github.com/roach88/sqlra/internal/schema"
)

// responseCache memoizes pipeline responses. A translation depends only on
// the endpoint, the schema and the SQL text, so those form the key. A nil
// *responseCache is a valid, always-missing cache.
type responseCache struct {
	lru *lru.Cache[string, pipeline.Response]
	m   *metrics
}

func newResponseCache(size int, m *metrics) (*responseCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, pipeline.Response](size)
	if err != nil {
		return nil, err
	}
	return &responseCache{lru: c, m: m}, nil
}

func cacheKey(endpoint string, req pipeline.Request) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write([]byte(schema.Hash(req.Schema)))
	h.Write([]byte{0})
	h.Write([]byte(req.SQL))
	return hex.EncodeToString(h.Sum(nil))
}

// get returns a copy of the cached response relabelled with the ID of the
// current request.
func (c *responseCache) get(endpoint string, req pipeline.Request) (*pipeline.Response, bool) {
	if c == nil {
		return nil, false
	}
	resp, ok := c.lru.Get(cacheKey(endpoint, req))
	if !ok {
		c.m.cacheMisses.WithLabelValues(endpoint).Inc()
		return nil, false
	}
	c.m.cacheHits.WithLabelValues(endpoint).Inc()
	resp.RequestID = req.ID
	return &resp, true
}

func (c *responseCache) add(endpoint string, req pipeline.Request, resp *pipeline.Response) {
	if c == nil {
		return
	}
	c.lru.Add(cacheKey(endpoint, req), *resp)
}

func (c *responseCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
