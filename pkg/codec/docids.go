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
	"encoding/binary"
	"io"
	"math"

	"github.com/redisearch-rs/searchcore/pkg/record"
)

// DocIDsOnly encodes only the varint doc-id delta. Used for the wildcard
// "set of existing documents" index (spec.md §4.1.3).
type DocIDsOnly struct{}

var _ Codec = DocIDsOnly{}

func (DocIDsOnly) RecommendedBlockEntries() uint16 { return 200 }
func (DocIDsOnly) AllowsDuplicates() bool          { return false }
func (DocIDsOnly) MaxRepresentableDelta() uint64   { return math.MaxUint64 }
func (DocIDsOnly) BasePolicy() BasePolicy           { return BaseOwnFirst }

func (DocIDsOnly) Encode(w io.Writer, delta uint64, _ record.Result) (int, error) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], delta)
	written, err := w.Write(buf[:n])
	return written, err
}

func (DocIDsOnly) Decode(r io.Reader, base record.DocID) (record.Result, bool, error) {
	delta, ok, err := readUvarint(r)
	if err != nil {
		return record.Result{}, false, err
	}
	if !ok {
		return record.Result{}, false, nil
	}
	doc := record.DocID(uint64(base) + delta)
	return record.Virtual(doc, record.FieldMask{}, 1.0), true, nil
}

// readUvarint reads a single standard-library varint, reporting a clean
// (false, nil) at end-of-stream when zero bytes are available, and
// ixerrors.ErrUnexpectedEOF if the stream ends mid-varint.
func readUvarint(r io.Reader) (uint64, bool, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = &byteReaderAdapter{r: r}
	}
	first, err := br.ReadByte()
	if err != nil {
		return 0, false, nil
	}
	if first < 0x80 {
		return uint64(first), true, nil
	}
	v, n := binary.Uvarint(append([]byte{first}, drainVarint(br)...))
	if n <= 0 {
		return 0, false, wrapEOF(io.ErrUnexpectedEOF)
	}
	return v, true, nil
}

// drainVarint reads continuation bytes (MSB set) until one without the
// continuation bit, for use after the first byte has already been peeked.
func drainVarint(br io.ByteReader) []byte {
	var out []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			return out
		}
		out = append(out, b)
		if b < 0x80 {
			return out
		}
	}
}

type byteReaderAdapter struct{ r io.Reader }

func (b *byteReaderAdapter) ReadByte() (byte, error) {
	var buf [1]byte
	_, err := b.r.Read(buf[:])
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}
