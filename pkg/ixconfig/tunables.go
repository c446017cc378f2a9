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

package ixconfig

import (
	"github.com/redisearch-rs/searchcore/pkg/jsonconfig"
)

// Tunables holds the handful of knobs a deployment may override from the
// defaults baked into this package's constants. It is loaded the same
// way every pluggable storage backend in the teacher's pkg/sorted and
// pkg/index constructs itself: a jsonconfig.Obj with required/optional
// typed accessors and a trailing Validate() for unknown keys.
type Tunables struct {
	MaxDepthRange           int
	CompressFloats          bool
	RecommendedBlockEntries int
	WideSchema              bool
}

// DefaultTunables returns the constants this package already defines as
// its zero-config defaults.
func DefaultTunables() Tunables {
	return Tunables{
		MaxDepthRange:           DefaultMaxDepthRange,
		CompressFloats:          false,
		RecommendedBlockEntries: DefaultRecommendedBlockEntries,
		WideSchema:              false,
	}
}

// LoadTunables parses c into a Tunables, applying DefaultTunables for any
// key c omits. It returns the first validation error jsonconfig
// accumulated (unknown keys, wrong types), if any.
func LoadTunables(c jsonconfig.Obj) (Tunables, error) {
	t := DefaultTunables()
	t.MaxDepthRange = c.OptionalInt("maxDepthRange", t.MaxDepthRange)
	t.CompressFloats = c.OptionalBool("compressFloats", t.CompressFloats)
	t.RecommendedBlockEntries = c.OptionalInt("recommendedBlockEntries", t.RecommendedBlockEntries)
	t.WideSchema = c.OptionalBool("wideSchema", t.WideSchema)
	if err := c.Validate(); err != nil {
		return Tunables{}, err
	}
	return t, nil
}

// Flags derives the per-index Flags bitset implied by t.
func (t Tunables) Flags() Flags {
	var f Flags
	if t.WideSchema {
		f = f.Set(WideSchema)
	}
	return f
}
