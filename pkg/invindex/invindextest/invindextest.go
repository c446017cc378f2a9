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

// Package invindextest contains fixture builders shared by pkg/invindex's
// own tests and by other packages' tests that need a populated
// InvertedIndex, following the teacher's pkg/index/indextest pattern of a
// reusable test-fixture package imported from _test.go files.
package invindextest

import (
	"testing"

	"github.com/redisearch-rs/searchcore/pkg/codec"
	"github.com/redisearch-rs/searchcore/pkg/ixconfig"
	"github.com/redisearch-rs/searchcore/pkg/invindex"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// PopulateSequential appends n Term records with doc ids 1..n to ix,
// failing the test immediately on the first unexpected append error or
// no-op.
func PopulateSequential(t *testing.T, ix *invindex.InvertedIndex, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		doc := record.DocID(i)
		rec := record.Term(doc, record.FieldMask{Lo: 1}, 1, 1.0, record.Offsets{}, nil)
		delta, err := ix.AddRecord(rec)
		if err != nil {
			t.Fatalf("AddRecord(%d): %v", i, err)
		}
		if delta == 0 {
			t.Fatalf("AddRecord(%d): append was a no-op", i)
		}
	}
}

// NewFullIndex returns a fresh InvertedIndex using the Full codec, the
// default choice for term postings in this core's tests.
func NewFullIndex() *invindex.InvertedIndex {
	return invindex.New(codec.Full{}, ixconfig.Flags(0))
}
