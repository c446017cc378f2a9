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

// Package ixmetrics instruments the core's append, GC, and query paths
// with Prometheus collectors, following the ecosystem convention of
// registering collectors once via promauto against a package-level
// registry rather than threading a metrics handle through every call.
package ixmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the Prometheus registerer searchcore metrics attach to. It
// defaults to prometheus.DefaultRegisterer. The collectors below are
// registered against it once, when this package is initialized;
// assigning a different Registerer afterwards does not move them.
var Registry prometheus.Registerer = prometheus.DefaultRegisterer

var (
	// AppendTotal counts InvertedIndex.AddRecord calls, labeled by
	// whether the append was accepted, rejected as out-of-order, or
	// rejected as a duplicate doc id.
	AppendTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchcore",
		Subsystem: "invindex",
		Name:      "append_total",
		Help:      "Total number of AddRecord calls, by outcome.",
	}, []string{"outcome"})

	// AppendBytes observes the memory growth reported by each accepted
	// append, for capacity planning.
	AppendBytes = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "searchcore",
		Subsystem: "invindex",
		Name:      "append_bytes",
		Help:      "Memory growth in bytes per accepted AddRecord call.",
		Buckets:   prometheus.ExponentialBuckets(8, 2, 12),
	})

	// GCScanSeconds times the GC scan phase.
	GCScanSeconds = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "searchcore",
		Subsystem: "gc",
		Name:      "scan_seconds",
		Help:      "Wall-clock time spent in a GC scan pass.",
	})

	// GCApplySeconds times the GC apply phase, which holds the writer
	// lock; kept separate from scan so a dashboard can flag lock holds.
	GCApplySeconds = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "searchcore",
		Subsystem: "gc",
		Name:      "apply_seconds",
		Help:      "Wall-clock time spent applying a GC delta under the writer lock.",
	})

	// GCBytesFreed and GCBytesAllocated track net memory effect of GC
	// applies, mirroring GcApplyInfo's fields.
	GCBytesFreed = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: "searchcore",
		Subsystem: "gc",
		Name:      "bytes_freed_total",
		Help:      "Cumulative bytes freed by GC apply.",
	})
	GCBytesAllocated = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: "searchcore",
		Subsystem: "gc",
		Name:      "bytes_allocated_total",
		Help:      "Cumulative bytes allocated by GC apply (block replacement).",
	})
	GCIgnoredLastBlock = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: "searchcore",
		Subsystem: "gc",
		Name:      "ignored_last_block_total",
		Help:      "Number of GC applies that discarded a stale last-block delta.",
	})

	// IteratorTimeouts counts cooperative-cancellation TimedOut results
	// across all iterator kinds, labeled by iterator kind.
	IteratorTimeouts = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchcore",
		Subsystem: "iterator",
		Name:      "timeouts_total",
		Help:      "Total number of iterator Read/SkipTo calls that returned TimedOut.",
	}, []string{"kind"})

	// TreeRevisions tracks the numeric range tree's current revision_id
	// per tree instance label, so a restructuring storm is visible.
	TreeRevisions = promauto.With(Registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "searchcore",
		Subsystem: "numtree",
		Name:      "revision_id",
		Help:      "Current revision_id of a numeric range tree.",
	}, []string{"tree"})
)
