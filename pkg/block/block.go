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

// Package block implements IndexBlock: a fixed-field header plus a byte
// buffer of encoded records, with append and GC-repair operations
// (spec.md §4.2).
package block

import (
	"bytes"

	"github.com/redisearch-rs/searchcore/pkg/codec"
	"github.com/redisearch-rs/searchcore/pkg/ixerrors"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// Block is one IndexBlock: first/last doc id, entry count, and the
// concatenated encoded records under its owning index's codec.
type Block struct {
	FirstDocID record.DocID
	LastDocID  record.DocID
	NumEntries uint16
	Buffer     []byte
}

// New returns an empty block.
func New() *Block {
	return &Block{}
}

// Append encodes rec into the block. base is the doc id the first record
// of a fresh block deltas from (ignored once the block already holds
// entries, since subsequent records always delta from LastDocID).
// ErrDeltaOverflow signals the caller should open a new block instead.
func (b *Block) Append(c codec.Codec, base record.DocID, doc record.Result) error {
	var delta uint64
	if b.NumEntries == 0 {
		b.FirstDocID = doc.DocID
		delta = uint64(doc.DocID) - uint64(base)
	} else {
		delta = uint64(doc.DocID) - uint64(b.LastDocID)
	}
	if delta > c.MaxRepresentableDelta() {
		return ixerrors.ErrDeltaOverflow
	}

	var buf bytes.Buffer
	if _, err := c.Encode(&buf, delta, doc); err != nil {
		return err
	}
	b.Buffer = append(b.Buffer, buf.Bytes()...)
	b.NumEntries++
	b.LastDocID = doc.DocID
	return nil
}

// RepairKind classifies the outcome of a block repair.
type RepairKind uint8

const (
	RepairUnchanged RepairKind = iota
	RepairDelete
	RepairReplace
)

// RepairOutcome is the result of repairing one block against a
// doc-existence predicate.
type RepairOutcome struct {
	Kind              RepairKind
	Replacement       []*Block
	UniqueDocsRemoved uint64
}

// Repair decodes every record in the block, classifies it via docExists,
// and rebuilds the block (possibly split into several) around the
// survivors. onRepair, if non-nil, is invoked for every record that does
// not survive, mirroring the `on_repair(record, block)` scan-phase
// callback in spec.md §4.2. prevBlockLast is the previous block's
// LastDocID (zero for the index's first block), used only when the
// codec's base policy is BasePrevBlockLast.
func (b *Block) Repair(c codec.Codec, prevBlockLast record.DocID, docExists func(record.DocID) bool, onRepair func(record.Result, *Block)) (RepairOutcome, error) {
	reader := bytes.NewReader(b.Buffer)
	base := b.decodeBase(c, prevBlockLast)

	var kept []record.Result
	var removedDocs = map[record.DocID]bool{}
	anyRemoved := false

	for {
		rec, ok, err := c.Decode(reader, base)
		if err != nil {
			return RepairOutcome{}, err
		}
		if !ok {
			break
		}
		base = rec.DocID
		if docExists(rec.DocID) {
			kept = append(kept, rec)
		} else {
			anyRemoved = true
			removedDocs[rec.DocID] = true
			if onRepair != nil {
				onRepair(rec, b)
			}
		}
	}

	if !anyRemoved {
		return RepairOutcome{Kind: RepairUnchanged}, nil
	}
	if len(kept) == 0 {
		return RepairOutcome{Kind: RepairDelete, UniqueDocsRemoved: uint64(len(removedDocs))}, nil
	}

	replacement, err := rebuild(c, prevBlockLast, kept)
	if err != nil {
		return RepairOutcome{}, err
	}
	return RepairOutcome{
		Kind:              RepairReplace,
		Replacement:       replacement,
		UniqueDocsRemoved: uint64(len(removedDocs)),
	}, nil
}

// decodeBase returns the doc id the block's first stored record deltas
// from, per the codec's base policy: BaseOwnFirst always deltas from the
// block's own FirstDocID, while BasePrevBlockLast deltas from the
// previous block's LastDocID (0 for the index's first block), mirroring
// invindex.chooseBase/Reader.blockBase so Repair decodes the same bytes
// the writer and Reader agree on.
func (b *Block) decodeBase(c codec.Codec, prevBlockLast record.DocID) record.DocID {
	policy := codec.BaseOwnFirst
	if bs, ok := c.(codec.BaseSelector); ok {
		policy = bs.BasePolicy()
	}
	if policy == codec.BaseOwnFirst {
		return b.FirstDocID
	}
	return prevBlockLast
}

// rebuild re-encodes the surviving records into one or more fresh blocks,
// opening a new block whenever the next record's delta would overflow the
// codec's representable width. The first replacement block takes the
// repaired block's place in the index, so it must base its first entry
// the same way a fresh block in that position would: prevBlockLast under
// BasePrevBlockLast (matching invindex.chooseBase), or its own first doc
// id under BaseOwnFirst. Any later replacement block created by an
// overflow split bases on the previous replacement block's LastDocID
// (or its own first doc id under BaseOwnFirst), exactly like opening a
// new block during normal append.
func rebuild(c codec.Codec, prevBlockLast record.DocID, kept []record.Result) ([]*Block, error) {
	policy := codec.BaseOwnFirst
	if bs, ok := c.(codec.BaseSelector); ok {
		policy = bs.BasePolicy()
	}

	firstBase := func(rec record.Result, chainBase record.DocID) record.DocID {
		if policy == codec.BaseOwnFirst {
			return rec.DocID
		}
		return chainBase
	}

	var blocks []*Block
	chainBase := prevBlockLast
	cur := New()
	for _, rec := range kept {
		if cur.NumEntries == 0 {
			if err := cur.Append(c, firstBase(rec, chainBase), rec); err != nil {
				return nil, err
			}
			continue
		}
		if err := cur.Append(c, cur.FirstDocID, rec); err != nil {
			if err == ixerrors.ErrDeltaOverflow {
				blocks = append(blocks, cur)
				chainBase = cur.LastDocID
				cur = New()
				if err := cur.Append(c, firstBase(rec, chainBase), rec); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}
	}
	if cur.NumEntries > 0 {
		blocks = append(blocks, cur)
	}
	return blocks, nil
}

// BufferCapacityBytes reports the allocated capacity of the block's
// buffer, used by GC apply to account bytes freed/allocated.
func (b *Block) BufferCapacityBytes() int {
	return cap(b.Buffer)
}

// Reader returns a fresh *bytes.Reader over the block's buffer. Callers
// holding a cached sub-slice into Buffer must call RefreshBufferPointers
// after any action that could have reallocated it (e.g. a GC repair
// replacing this block in place via CopyFrom).
func (b *Block) Reader() *bytes.Reader {
	return bytes.NewReader(b.Buffer)
}

// CopyFrom replaces b's contents with other's, as GC apply does when
// repairing a block in place rather than replacing the slice entry.
func (b *Block) CopyFrom(other *Block) {
	b.FirstDocID = other.FirstDocID
	b.LastDocID = other.LastDocID
	b.NumEntries = other.NumEntries
	b.Buffer = other.Buffer
}
