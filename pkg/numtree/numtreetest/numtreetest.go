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

// Package numtreetest contains fixture builders for pkg/numtree's
// tests, following the teacher's
// pkg/index/indextest reusable test-fixture pattern.
package numtreetest

import (
	"math/rand"
	"testing"

	"github.com/redisearch-rs/searchcore/pkg/numtree"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// PopulateUniform inserts n (doc, value) pairs with value drawn
// uniformly from [0, max) and doc ids 1..n, failing the test on the
// first Add error.
func PopulateUniform(t *testing.T, tr *numtree.Tree, n int, max float64, seed int64, maxDepthRange int) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	for i := 1; i <= n; i++ {
		if _, err := tr.Add(record.DocID(i), rng.Float64()*max, false, maxDepthRange); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
}
