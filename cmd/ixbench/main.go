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

// Command ixbench drives a synthetic append/GC/query workload against an
// in-process InvertedIndex and numeric range Tree, printing aggregate
// timing and size stats. It exists to exercise the full append -> GC ->
// iterate path end to end without a server, the way camget/camput exist
// as standalone exercisers of the teacher's client/index packages.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/redisearch-rs/searchcore/pkg/buildinfo"
	"github.com/redisearch-rs/searchcore/pkg/codec"
	"github.com/redisearch-rs/searchcore/pkg/invindex"
	"github.com/redisearch-rs/searchcore/pkg/iterator"
	"github.com/redisearch-rs/searchcore/pkg/ixconfig"
	"github.com/redisearch-rs/searchcore/pkg/ixlog"
	"github.com/redisearch-rs/searchcore/pkg/numtree"
	"github.com/redisearch-rs/searchcore/pkg/record"
)

var (
	flagDocs        = flag.Int("docs", 100000, "number of synthetic documents to append")
	flagTerms       = flag.Int("terms", 8, "number of distinct terms to spread the docs across")
	flagGC          = flag.Bool("gc", true, "run a ScanGC/ApplyGC pass after appending, dropping every 10th doc")
	flagNumeric     = flag.Bool("numeric", true, "also build a numeric range tree over a synthetic price field")
	flagSeed        = flag.Int64("seed", 1, "random seed")
	flagMetricsAddr = flag.String("metrics_addr", "", "if non-empty, serve Prometheus metrics on this address (e.g. :9090) until the run completes, then exit")
	flagVersion     = flag.Bool("version", false, "print build version info and exit")
)

func main() {
	flag.Parse()
	if *flagVersion {
		fmt.Println(buildinfo.Summary())
		return
	}
	defer ixlog.Sync()
	rng := rand.New(rand.NewSource(*flagSeed))

	if *flagMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: *flagMetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				ixlog.Warnw("metrics server exited", "err", err)
			}
		}()
		defer srv.Close()
	}

	ix := invindex.New(codec.Full{}, ixconfig.Flags(0))
	start := time.Now()
	var grown int64
	for i := 1; i <= *flagDocs; i++ {
		doc := record.DocID(i)
		fm := record.MaskForField(record.FieldIndex(i % *flagTerms))
		rec := record.Term(doc, fm, 1, 1.0, record.Offsets{}, nil)
		delta, err := ix.AddRecord(rec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "append failed at doc %d: %v\n", i, err)
			os.Exit(1)
		}
		grown += delta
	}
	appendElapsed := time.Since(start)
	ixlog.Infow("append phase complete",
		"docs", *flagDocs, "bytesGrown", grown, "elapsed", appendElapsed)

	if *flagGC {
		removed := make(map[record.DocID]bool)
		for i := 1; i <= *flagDocs; i += 10 {
			removed[record.DocID(i)] = true
		}
		docExists := func(d record.DocID) bool { return !removed[d] }

		scanStart := time.Now()
		delta, err := ix.ScanGC(docExists, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan gc failed: %v\n", err)
			os.Exit(1)
		}
		info := ix.ApplyGC(delta)
		ixlog.Infow("gc phase complete",
			"scanElapsed", time.Since(scanStart),
			"bytesFreed", info.BytesFreed,
			"bytesAllocated", info.BytesAllocated,
			"entriesRemoved", info.EntriesRemoved)
	}

	summary := ix.Summary()
	fmt.Printf("index summary: docs=%d entries=%d blocks=%d efficiency=%.2f\n",
		summary.NumberOfDocs, summary.NumberOfEntries, summary.NumberOfBlocks, summary.BlockEfficiency)

	r := ix.Reader()
	term := iterator.NewTermIterator(r, nil, ix.Codec.AllowsDuplicates(), nil, summary.NumberOfDocs)
	ctx := context.Background()
	var seen int
	for {
		_, ok, err := term.Read(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read failed: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			break
		}
		seen++
	}
	fmt.Printf("term iterator replayed %d records\n", seen)

	if *flagNumeric {
		runNumericBench(rng, *flagDocs)
	}
}

func runNumericBench(rng *rand.Rand, docs int) {
	tr := numtree.New(true)
	tr.Name = "ixbench_price"

	start := time.Now()
	for i := 1; i <= docs; i++ {
		value := rng.Float64() * 1000
		if _, err := tr.Add(record.DocID(i), value, false, 6); err != nil {
			fmt.Fprintf(os.Stderr, "numeric add failed at doc %d: %v\n", i, err)
			os.Exit(1)
		}
	}
	ixlog.Infow("numeric tree build complete",
		"docs", docs, "elapsed", time.Since(start),
		"ranges", tr.NumRanges, "leaves", tr.NumLeaves, "revision", tr.RevisionID())

	ranges := tr.Find(100, 200)
	fmt.Printf("numeric tree: %d ranges overlap [100, 200]\n", len(ranges))
}
