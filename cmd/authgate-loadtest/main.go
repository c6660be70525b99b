package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/internal/authtest"
	"github.com/MrEthical07/authgate/jwt"
)

func main() {
	var (
		sessions     = pflag.Int("sessions", 200, "number of sessions to seed")
		concurrency  = pflag.Int("concurrency", 64, "number of concurrent workers")
		ops          = pflag.Int("ops", 20000, "requests per phase")
		redisAddr    = pflag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix       = pflag.String("prefix", "ag", "session key prefix")
		refreshDelay = pflag.Duration("refresh-delay", 20*time.Millisecond, "artificial latency of the fake refresh endpoint")
	)
	pflag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	rdb, cleanup, err := openRedis(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	backend, err := authtest.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start fake backend: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()
	backend.SetRefreshDelay(*refreshDelay)

	cfg := authgate.DefaultConfig()
	cfg.Backend.BaseURL = backend.URL()
	cfg.Session.RedisPrefix = *prefix
	client, err := authgate.New().
		WithConfig(cfg).
		WithHTTPClient(backend.Client()).
		WithRedis(rdb).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	all := make([]*authgate.Session, *sessions)
	for i := range all {
		access, refresh, err := backend.IssuePair(jwt.Subject{ID: fmt.Sprintf("u-%d", i), Role: "user"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		s := client.NewSession(fmt.Sprintf("sid-%d", i))
		if err := s.SetTokens(ctx, access, refresh); err != nil {
			fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			os.Exit(1)
		}
		all[i] = s
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	backend.ExpireAccessTokens()
	expiredStats := runPhase(ctx, client, all, *ops, *concurrency)
	refreshCalls := backend.Calls(authtest.RefreshPath)
	steadyStats := runPhase(ctx, client, all, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("expired", expiredStats)
	printStats("steady", steadyStats)
	m := client.Metrics()
	fmt.Printf("refresh: calls=%d sessions=%d shared=%d retries=%d rotated=%d\n",
		refreshCalls,
		*sessions,
		m.Value(authgate.MetricRefreshShared),
		m.Value(authgate.MetricRequestRetry),
		m.Value(authgate.MetricRequestRotatedRetry),
	)

	if refreshCalls > *sessions || expiredStats.failures > 0 || steadyStats.failures > 0 {
		fmt.Fprintln(os.Stderr, "FAIL: expected at most one refresh per session and no failed requests")
		os.Exit(1)
	}
	fmt.Println("OK: at most one refresh per session")
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func runPhase(ctx context.Context, client *authgate.Client, sessions []*authgate.Session, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				s := sessions[r.Intn(len(sessions))]
				t0 := time.Now()
				res := client.Do(ctx, s, authgate.Request{Path: "/workflows"})
				d := time.Since(t0)
				if !res.OK() {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
