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

	"github.com/redisearch-rs/searchcore/pkg/ixerrors"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// Full is the term+offsets codec (spec.md §4.1.2). It encodes
// {field_mask, frequency, doc_id_delta, offsets_length, offsets_bytes}.
// The delta is a fixed 32-bit width; a delta that overflows it must be
// rejected by the writer, which opens a new block instead.
type Full struct {
	WideSchema bool // 128-bit field mask instead of the 32-bit default
}

var _ Codec = Full{}

func (Full) RecommendedBlockEntries() uint16 { return 100 }
func (Full) AllowsDuplicates() bool          { return true }
func (Full) MaxRepresentableDelta() uint64   { return 0xFFFFFFFF }
func (Full) BasePolicy() BasePolicy           { return BasePrevBlockLast }

func (f Full) fieldMaskBytes() int {
	if f.WideSchema {
		return 16
	}
	return 4
}

func (f Full) Encode(w io.Writer, delta uint64, rec record.Result) (int, error) {
	if delta > f.MaxRepresentableDelta() {
		return 0, ixerrors.ErrDeltaOverflow
	}

	fmBuf := make([]byte, f.fieldMaskBytes())
	if f.WideSchema {
		binary.LittleEndian.PutUint64(fmBuf[0:8], rec.FieldMask.Lo)
		binary.LittleEndian.PutUint64(fmBuf[8:16], rec.FieldMask.Hi)
	} else {
		binary.LittleEndian.PutUint32(fmBuf[0:4], uint32(rec.FieldMask.Lo))
	}

	var freqBuf [binary.MaxVarintLen64]byte
	freqN := binary.PutUvarint(freqBuf[:], uint64(rec.Frequency))

	var deltaBuf [4]byte
	binary.LittleEndian.PutUint32(deltaBuf[:], uint32(delta))

	var lenBuf [binary.MaxVarintLen64]byte
	lenN := binary.PutUvarint(lenBuf[:], uint64(len(rec.Offsets.Bytes)))

	return writeAllVectored(w, [][]byte{
		fmBuf,
		freqBuf[:freqN],
		deltaBuf[:],
		lenBuf[:lenN],
		rec.Offsets.Bytes,
	})
}

func (f Full) Decode(r io.Reader, base record.DocID) (record.Result, bool, error) {
	fmBuf := make([]byte, f.fieldMaskBytes())
	n, err := r.Read(fmBuf[:1])
	if err != nil || n == 0 {
		if err == io.EOF || n == 0 {
			return record.Result{}, false, nil
		}
		return record.Result{}, false, wrapEOF(err)
	}
	if err := readExact(r, fmBuf[1:]); err != nil {
		return record.Result{}, false, err
	}

	var fm record.FieldMask
	if f.WideSchema {
		fm.Lo = binary.LittleEndian.Uint64(fmBuf[0:8])
		fm.Hi = binary.LittleEndian.Uint64(fmBuf[8:16])
	} else {
		fm.Lo = uint64(binary.LittleEndian.Uint32(fmBuf[0:4]))
	}

	freq, ok, err := readUvarint(r)
	if err != nil {
		return record.Result{}, false, err
	}
	if !ok {
		return record.Result{}, false, ixerrors.ErrUnexpectedEOF
	}

	var deltaBuf [4]byte
	if err := readExact(r, deltaBuf[:]); err != nil {
		return record.Result{}, false, err
	}
	delta := binary.LittleEndian.Uint32(deltaBuf[:])

	offLen, ok, err := readUvarint(r)
	if err != nil {
		return record.Result{}, false, err
	}
	if !ok {
		return record.Result{}, false, ixerrors.ErrUnexpectedEOF
	}

	var offsets []byte
	if offLen > 0 {
		offsets = make([]byte, offLen)
		if err := readExact(r, offsets); err != nil {
			return record.Result{}, false, err
		}
	}

	doc := record.DocID(uint64(base) + uint64(delta))
	rec := record.Term(doc, fm, uint32(freq), 1.0, record.Offsets{Bytes: offsets, Owned: true}, nil)
	return rec, true, nil
}
