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

package invindex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redisearch-rs/searchcore/pkg/codec"
	"github.com/redisearch-rs/searchcore/pkg/invindex"
	"github.com/redisearch-rs/searchcore/pkg/invindex/invindextest"
	"github.com/redisearch-rs/searchcore/pkg/ixconfig"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

func TestAddRecordSequential(t *testing.T) {
	ix := invindextest.NewFullIndex()
	invindextest.PopulateSequential(t, ix, 50)

	assert.Equal(t, uint64(50), ix.UniqueDocs())
	assert.Equal(t, record.DocID(50), ix.LastDocID)
}

func TestAddRecordRejectsOutOfOrder(t *testing.T) {
	ix := invindextest.NewFullIndex()
	invindextest.PopulateSequential(t, ix, 10)

	delta, err := ix.AddRecord(record.Term(5, record.FieldMask{Lo: 1}, 1, 1.0, record.Offsets{}, nil))
	require.NoError(t, err)
	assert.Zero(t, delta)
	assert.Equal(t, uint64(10), ix.UniqueDocs())
}

func TestAddRecordRejectsDuplicateUnderNonDupCodec(t *testing.T) {
	// DocIDsOnly disallows duplicates, unlike Full; use it to exercise
	// the HasMultiValue-flagging no-op path.
	ix := invindex.New(codec.DocIDsOnly{}, ixconfig.Flags(0))
	_, err := ix.AddRecord(record.Numeric(1, 1.0, 1.0))
	require.NoError(t, err)

	delta, err := ix.AddRecord(record.Numeric(1, 2.0, 1.0))
	require.NoError(t, err)
	assert.Zero(t, delta)
	assert.True(t, ix.Flags.Has(ixconfig.HasMultiValue))
}

func TestReaderReplaysInOrder(t *testing.T) {
	ix := invindextest.NewFullIndex()
	invindextest.PopulateSequential(t, ix, 300) // forces multiple blocks

	r := ix.Reader()
	var last record.DocID
	var count int
	for {
		rec, ok, err := r.NextRecord()
		require.NoError(t, err)
		if !ok {
			break
		}
		require.Greater(t, rec.DocID, last)
		last = rec.DocID
		count++
	}
	assert.Equal(t, 300, count)
}

func TestSeekRecordFindsFirstAtOrAfterTarget(t *testing.T) {
	ix := invindextest.NewFullIndex()
	invindextest.PopulateSequential(t, ix, 300)

	r := ix.Reader()
	rec, ok, err := r.SeekRecord(150)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record.DocID(150), rec.DocID)
}

func TestReaderDecodesExactDocIDsStartingAtNonzero(t *testing.T) {
	// Regression test: the writer and Reader must agree on the base a
	// fresh index's first block deltas from, or the first record (and
	// every record chained off it via BasePrevBlockLast) decodes wrong.
	const first = 1000
	const n = 50

	ix := invindextest.NewFullIndex()
	for i := 0; i < n; i++ {
		doc := record.DocID(first + i)
		rec := record.Term(doc, record.FieldMask{Lo: 1}, 1, 1.0, record.Offsets{}, nil)
		_, err := ix.AddRecord(rec)
		require.NoError(t, err)
	}

	r := ix.Reader()
	for i := 0; i < n; i++ {
		rec, ok, err := r.NextRecord()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, record.DocID(first+i), rec.DocID)
	}
	_, ok, err := r.NextRecord()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNumericReaderDecodesExactDocIDsStartingAtNonzero(t *testing.T) {
	const first = 5000
	const n = 50

	ix := invindex.New(codec.Numeric{}, ixconfig.Flags(0))
	for i := 0; i < n; i++ {
		doc := record.DocID(first + i)
		_, err := ix.AddRecord(record.Numeric(doc, float64(i), 1.0))
		require.NoError(t, err)
	}

	r := ix.Reader()
	for i := 0; i < n; i++ {
		rec, ok, err := r.NextRecord()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, record.DocID(first+i), rec.DocID)
		assert.Equal(t, float64(i), rec.Value)
	}
	_, ok, err := r.NextRecord()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodedRecordCacheRoundTrips(t *testing.T) {
	ix := invindextest.NewFullIndex()
	invindextest.PopulateSequential(t, ix, 5)

	cache, err := invindex.NewDecodedRecordCache(16)
	require.NoError(t, err)

	rec := record.Term(3, record.FieldMask{Lo: 1}, 1, 1.0, record.Offsets{}, nil)
	cache.Put(ix, 3, rec)

	got, ok := cache.Get(ix, 3)
	require.True(t, ok)
	assert.Equal(t, rec.DocID, got.DocID)
}
