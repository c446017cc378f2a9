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

package codec

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redisearch-rs/searchcore/pkg/record"
)

func TestNumericEncodeExactBytes(t *testing.T) {
	cases := []struct {
		name  string
		value float64
		delta uint64
		want  []byte
	}{
		{"tiny-value-delta-2", 5.0, 2, []byte{0xA1, 0x02}},
		{"int-pos-delta-0", 256.0, 0, []byte{0x30, 0x00, 0x01}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := Numeric{}.Encode(&buf, tc.delta, record.Numeric(0, tc.value, 1.0))
			require.NoError(t, err)
			assert.Equal(t, len(tc.want), n)
			assert.Equal(t, tc.want, buf.Bytes())
		})
	}
}

func TestNumericRoundTrip(t *testing.T) {
	values := []float64{0, math.Copysign(0, -1), 1, -1, 5, -5, 7, -7, 255, 256, 65535, 65536,
		1.5, -1.5, 3.14159, -3.14159, math.Inf(1), math.Inf(-1)}
	deltas := []uint64{0, 1, 127, 128, 65535, math.MaxUint32}

	for _, v := range values {
		for _, d := range deltas {
			var buf bytes.Buffer
			_, err := Numeric{}.Encode(&buf, d, record.Numeric(0, v, 1.0))
			require.NoError(t, err)

			got, ok, err := Numeric{}.Decode(&buf, 100)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, record.DocID(100+d), got.DocID)
			if math.IsInf(v, 0) {
				assert.Equal(t, v, got.Value)
			} else {
				assert.InDelta(t, v, got.Value, 1e-9)
			}
		}
	}
}

func TestNumericSmallNegativeIntegerPreservesSign(t *testing.T) {
	// Regression test: TINY's 3-bit payload has no sign bit, so a small
	// negative integer must classify as INT_NEG, not TINY, or it
	// round-trips as positive.
	for _, v := range []float64{-1, -5, -7} {
		var buf bytes.Buffer
		_, err := Numeric{}.Encode(&buf, 0, record.Numeric(0, v, 1.0))
		require.NoError(t, err)

		got, ok, err := Numeric{}.Decode(&buf, 0)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, v, got.Value)
	}
}

func TestNumericCompressFloats(t *testing.T) {
	var buf bytes.Buffer
	_, err := Numeric{CompressFloats: true}.Encode(&buf, 0, record.Numeric(0, 1.5, 1.0))
	require.NoError(t, err)

	got, ok, err := Numeric{CompressFloats: true}.Decode(&buf, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 1.5, got.Value, 1e-6)
}

func TestNumericDecodeEOF(t *testing.T) {
	var buf bytes.Buffer
	_, ok, err := Numeric{}.Decode(&buf, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
