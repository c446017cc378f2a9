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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redisearch-rs/searchcore/pkg/record"
)

func TestFullRoundTripDefaultSchema(t *testing.T) {
	c := Full{}
	rec := record.Term(42, record.FieldMask{Lo: 0xABCD}, 7, 1.0, record.Offsets{Bytes: []byte{1, 2, 3}}, nil)

	var buf bytes.Buffer
	_, err := c.Encode(&buf, 5, rec)
	require.NoError(t, err)

	got, ok, err := c.Decode(&buf, 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record.DocID(105), got.DocID)
	assert.Equal(t, uint64(0xABCD), got.FieldMask.Lo)
	assert.Zero(t, got.FieldMask.Hi)
	assert.Equal(t, uint32(7), got.Frequency)
	assert.Equal(t, []byte{1, 2, 3}, got.Offsets.Bytes)
}

func TestFullRoundTripWideSchema(t *testing.T) {
	c := Full{WideSchema: true}
	rec := record.Term(1, record.FieldMask{Lo: 0x1111111111111111, Hi: 0x2222222222222222}, 1, 1.0, record.Offsets{}, nil)

	var buf bytes.Buffer
	_, err := c.Encode(&buf, 0, rec)
	require.NoError(t, err)

	got, ok, err := c.Decode(&buf, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(0x1111111111111111), got.FieldMask.Lo)
	assert.Equal(t, uint64(0x2222222222222222), got.FieldMask.Hi)
}

func TestFullDecodeEOF(t *testing.T) {
	var buf bytes.Buffer
	_, ok, err := Full{}.Decode(&buf, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
