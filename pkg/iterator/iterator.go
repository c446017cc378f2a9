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

// Package iterator implements the uniform query iterator protocol
// (spec.md §4.5): read/skip_to/rewind/revalidate/num_estimated/
// last_doc_id/at_eof/current, the base inverted-index iterator with its
// four read and two skip_to specializations, the Numeric/Term/Wildcard
// leaf iterators, and the NOT/OPTIONAL/UNION/INTERSECT combinators.
package iterator

import (
	"context"

	"github.com/redisearch-rs/searchcore/pkg/ixerrors"
	"github.com/redisearch-rs/searchcore/pkg/ixmetrics"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

// SkipOutcome discriminates skip_to's two non-EOF results.
type SkipOutcome uint8

const (
	// SkipFound means the returned record's doc id equals the target.
	SkipFound SkipOutcome = iota
	// SkipNotFound means the returned record is the first doc id
	// strictly greater than the target.
	SkipNotFound
)

// RevalidateStatus discriminates revalidate's three non-error outcomes.
type RevalidateStatus uint8

const (
	// RevalidateOK means the iterator's position is still exactly valid.
	RevalidateOK RevalidateStatus = iota
	// RevalidateMoved means the reader had to re-seek; Current reflects
	// where it landed (which may be past the old position, or nothing).
	RevalidateMoved
	// RevalidateAborted means the iterator's underlying data vanished or
	// restructured incompatibly; the iterator is now permanently empty.
	RevalidateAborted
)

// Iterator is the uniform protocol every leaf and combinator satisfies.
// Implementations must yield strictly ascending doc ids from Read, and
// latch at EOF (further Read calls return false, nil) after a natural
// end, a TimedOut error, or a RevalidateAborted outcome, until Rewind.
type Iterator interface {
	// Read advances to and returns the next record. False with a nil
	// error means natural end of stream; a non-nil error is terminal
	// (typically ixerrors' Timeout) and also latches EOF.
	Read(ctx context.Context) (record.Result, bool, error)

	// SkipTo requires target > LastDocID(). On success the returned
	// record's doc id is >= target; outcome distinguishes an exact hit
	// from the first id past it. False with a nil error means EOF.
	SkipTo(ctx context.Context, target record.DocID) (record.Result, SkipOutcome, bool, error)

	// Rewind resets the iterator to its initial, pre-read state,
	// clearing any EOF latch but not a previously observed deadline.
	Rewind()

	// NumEstimated is a non-binding upper bound on remaining records.
	NumEstimated() uint64

	// LastDocID is the doc id of the most recently emitted record, or 0
	// if nothing has been emitted yet.
	LastDocID() record.DocID

	// AtEOF reports whether the iterator is latched at end-of-stream.
	AtEOF() bool

	// Revalidate re-synchronizes the iterator with its underlying data
	// after a concurrent GC apply or tree restructure.
	Revalidate(ctx context.Context) (RevalidateStatus, error)

	// Current returns the most recently emitted record, if any.
	Current() (record.Result, bool)
}

// checkDeadline reports ixerrors.Timeout if ctx has expired, the single
// cooperative-cancellation check point every combinator and base
// iterator makes between record emissions (never mid-record), per
// spec.md §5's "deadline check between record emissions, not between
// bytes." kind labels the IteratorTimeouts counter (e.g. "base",
// "union", "intersect", "not", "optional").
func checkDeadline(ctx context.Context, kind string) error {
	select {
	case <-ctx.Done():
		ixmetrics.IteratorTimeouts.WithLabelValues(kind).Inc()
		return ixerrors.Timeout("deadline exceeded during iteration")
	default:
		return nil
	}
}
