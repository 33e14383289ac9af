// Command bench runs a synthetic workload against the cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/segcache/cache"
	pmet "github.com/IvanBrykalov/segcache/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		maxItems = flag.Int("max-items", 100_000, "entry count limit (0 = unbounded)")
		maxBytes = flag.String("max-bytes", "0", "payload byte limit, e.g. 64MiB (0 = unbounded)")
		shards   = flag.Int("shards", 0, "number of shards (0=auto)")
		segCap   = flag.Int("segment-capacity", 0, "index segment slots (0 = default)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys      = flag.Int("keys", 1_000_000, "keyspace size")
		valueSize = flag.Int("value-size", 64, "value size in bytes")
		zipfS     = flag.Float64("zipf-s", 1.1, "Zipf s > 1 (skew)")
		zipfV     = flag.Float64("zipf-v", 1.0, "Zipf v")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload   = flag.Int("preload", 0, "preload entries (0 = max-items/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
		verbose     = flag.BoolP("verbose", "v", false, "debug logging")
	)
	flag.Parse()

	logCfg := zap.NewProductionConfig()
	if *verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := logCfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	byteLimit, err := humanize.ParseBytes(*maxBytes)
	if err != nil {
		log.Fatal("invalid --max-bytes", zap.String("value", *maxBytes), zap.Error(err))
	}
	if *keys < 1 || *readPct < 0 || *readPct > 100 {
		log.Fatal("invalid workload flags", zap.Int("keys", *keys), zap.Int("reads", *readPct))
	}

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Info("pprof: serving", zap.String("addr", *pprofAddr))
			if err := http.ListenAndServe(*pprofAddr, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("pprof server", zap.Error(err))
			}
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "segcache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Info("metrics: serving", zap.String("addr", *metricsAddr))
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()

	// ---- Build cache ----
	c := cache.NewSharded(*shards, cache.Options{
		MaxItems:        *maxItems,
		MaxBytes:        int64(byteLimit),
		SegmentCapacity: *segCap,
		Metrics:         metrics,
		Logger:          log.Named("cache"),
	})

	// ---- Preload to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *maxItems / 2
	}
	val := make([]byte, *valueSize)
	for i := 0; i < pl; i++ {
		if _, err := c.Set([]byte("k:"+strconv.Itoa(i)), val, 0); err != nil {
			log.Fatal("preload", zap.Error(err))
		}
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var reads, writes, hits, total atomic.Uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workersN; w++ {
		id := w
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, *zipfS, *zipfV, keysMax)
			buf := make([]byte, 0, 24)

			for ctx.Err() == nil {
				k := strconv.AppendUint(append(buf[:0], "k:"...), localZipf.Uint64(), 10)
				total.Add(1)
				if int(localR.Int31n(100)) < readPctVal {
					reads.Add(1)
					_, ok, err := c.Get(k)
					if err != nil {
						return err
					}
					if ok {
						hits.Add(1)
					}
				} else {
					writes.Add(1)
					if _, err := c.Set(k, val, 0); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal("workload", zap.Error(err))
	}
	elapsed := time.Since(start)

	// ---- Report ----
	ops, readsN, writesN, hitsN := total.Load(), reads.Load(), writes.Load(), hits.Load()
	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}
	st := c.Stats()

	fmt.Printf("max-items=%d max-bytes=%s shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		*maxItems, humanize.IBytes(byteLimit), c.Shards(), workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, readsN-hitsN, hitRate)
	fmt.Printf("keys=%d evictions=%d segments=%d data=%s meta=%s index=%s\n",
		st.NumKeys, st.NumEvictions, st.NumIndexes,
		humanize.IBytes(uint64(st.DataSize)), humanize.IBytes(uint64(st.MetaSize)), humanize.IBytes(uint64(st.IndexSize)))
}
