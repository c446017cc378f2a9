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

// Package codec implements the Encoder/Decoder pairs for each posting
// record encoding: doc-ids-only, numeric packed, and full/term-with-
// offsets. Every record is encoded as
//
//	[ header (1-N bytes) | delta (0-8 bytes) | payload (0-N bytes) ]
//
// where delta is doc_id - previous_doc_id within the current block.
package codec

import (
	"bytes"
	"io"

	"github.com/redisearch-rs/searchcore/pkg/ixerrors"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// Encoder writes one record's encoding to w, given the delta from the
// block's running doc id base. It returns the number of bytes written.
type Encoder interface {
	Encode(w io.Writer, delta uint64, rec record.Result) (int, error)
}

// Decoder reads one record from r, reconstructing its doc id from base
// plus the decoded delta. It returns a zero Result, false, and a nil
// error at a clean end-of-stream (no bytes available for a new header), and
// ixerrors.ErrUnexpectedEOF if the stream ends mid-record.
type Decoder interface {
	Decode(r io.Reader, base record.DocID) (rec record.Result, ok bool, err error)
}

// Properties describes the fixed characteristics of a codec that the
// block store and writer consult when deciding to grow a block or open a
// new one.
type Properties interface {
	// RecommendedBlockEntries is the soft limit at which the writer opens
	// a new block rather than keep appending to the current one.
	RecommendedBlockEntries() uint16

	// AllowsDuplicates reports whether two consecutive records may share
	// a doc id (multi-value indexes).
	AllowsDuplicates() bool

	// MaxRepresentableDelta is used to detect delta overflow, forcing a
	// new block to be opened.
	MaxRepresentableDelta() uint64
}

// BasePolicy selects, per spec.md §3 ("a fresh block's first record
// encodes a delta computed from its first_doc_id"), which doc id a fresh
// block's first record deltas from.
type BasePolicy uint8

const (
	// BaseOwnFirst bases the first record's delta on the block's own
	// first_doc_id (so the first record's encoded delta is always 0).
	BaseOwnFirst BasePolicy = iota
	// BasePrevBlockLast bases the first record's delta on the previous
	// block's last_doc_id, carrying the running delta chain across block
	// boundaries.
	BasePrevBlockLast
)

// BaseSelector is implemented by codecs that need to advertise their base
// id policy to the block/inverted-index layer.
type BaseSelector interface {
	BasePolicy() BasePolicy
}

// Codec is the full encode/decode/properties triple for one block
// encoding.
type Codec interface {
	Encoder
	Decoder
	Properties
}

// writeAllVectored writes the given byte slices to w one Write call per
// chunk, in order; it does not issue a single vectored write. For a sink
// other than *bytes.Buffer, a chunk accepted only in part ends the call
// with ixerrors.ErrShortWrite. No third-party vectored-I/O library
// appears anywhere in the example corpus, so this loop is hand-written
// against the standard library.
func writeAllVectored(w io.Writer, chunks [][]byte) (int, error) {
	if bw, ok := w.(*bytes.Buffer); ok {
		total := 0
		for _, c := range chunks {
			n, err := bw.Write(c)
			total += n
			if err != nil {
				return total, err
			}
		}
		return total, nil
	}
	total := 0
	for _, c := range chunks {
		n, err := w.Write(c)
		total += n
		if err != nil {
			if n < len(c) {
				return total, ixerrors.ErrShortWrite
			}
			return total, err
		}
		if n < len(c) {
			return total, ixerrors.ErrShortWrite
		}
	}
	return total, nil
}

// trimTrailingZeros returns the minimal-length little-endian prefix of b
// such that all trailing bytes beyond it are zero. An all-zero b yields
// an empty slice; callers decide the zero-length case themselves.
func trimTrailingZeros(b []byte) []byte {
	end := 0
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0 {
			end = i + 1
			break
		}
	}
	return b[:end]
}

func readExact(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ixerrors.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}
