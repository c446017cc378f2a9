/*
Copyright 2024 The searchcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package invindex

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/redisearch-rs/searchcore/pkg/record"
)

// recordCacheKey identifies a decoded record by the index it came from
// (by gc_marker, so a GC apply can't serve a stale entry) and doc id.
type recordCacheKey struct {
	index    *InvertedIndex
	gcMarker uint64
	doc      record.DocID
}

// DecodedRecordCache is a bounded, generic cache of decoded records a
// query planner can share across repeated re-reads of the same posting
// list (e.g. re-scoring, pagination). It is not used internally by
// Reader, which always decodes from the block buffer directly; it is
// exposed for callers that sit above this core and re-read the same
// cursor positions across multiple query phases.
type DecodedRecordCache struct {
	inner *lru.Cache[recordCacheKey, record.Result]
}

// NewDecodedRecordCache returns a cache bounded to size entries.
func NewDecodedRecordCache(size int) (*DecodedRecordCache, error) {
	inner, err := lru.New[recordCacheKey, record.Result](size)
	if err != nil {
		return nil, err
	}
	return &DecodedRecordCache{inner: inner}, nil
}

// Get returns the cached record decoded from ix at doc, if present and
// still valid for ix's current gc_marker.
func (c *DecodedRecordCache) Get(ix *InvertedIndex, doc record.DocID) (record.Result, bool) {
	return c.inner.Get(recordCacheKey{index: ix, gcMarker: ix.GCMarker(), doc: doc})
}

// Put caches rec as the decoded record for doc at ix's current
// gc_marker.
func (c *DecodedRecordCache) Put(ix *InvertedIndex, doc record.DocID, rec record.Result) {
	c.inner.Add(recordCacheKey{index: ix, gcMarker: ix.GCMarker(), doc: doc}, rec.Own())
}
