package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Config struct {
	TargetURL      string
	Mode           string
	Concurrency    int
	Duration       time.Duration
	ZipfS          float64
	ZipfV          float64
	Pairs          int
	OutputPrefix   string
	RequestTimeout time.Duration
	PlacesFile     string
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.TargetURL, "target", "http://localhost:8090/api/v1/route", "Route endpoint URL")
	flag.StringVar(&cfg.Mode, "mode", "car", "Travel mode: car|walking|mixed")
	flag.IntVar(&cfg.Concurrency, "concurrency", 8, "Concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "Test duration")
	flag.Float64Var(&cfg.ZipfS, "zipf-s", 1.3, "Zipf parameter s (>1)")
	flag.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	flag.IntVar(&cfg.Pairs, "pairs", 64, "Distinct origin/destination pairs in pool")
	flag.StringVar(&cfg.OutputPrefix, "out", "results/routeload", "Output file prefix (JSON/CSV)")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 30*time.Second, "Per-request timeout")
	flag.StringVar(&cfg.PlacesFile, "places", "", "Optional CSV file (address[,lat,lng]) to draw waypoints from")
	flag.Parse()
	return cfg
}

type place struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

var defaultPlaces = []string{
	"Berlin", "Hamburg", "München", "Köln", "Frankfurt am Main",
	"Stuttgart", "Düsseldorf", "Leipzig", "Dortmund", "Bremen",
	"Dresden", "Hannover", "Nürnberg", "Potsdam", "Freiburg im Breisgau",
}

func loadPlacesCSV(path string) ([]place, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open places: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []place
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		addr := strings.TrimSpace(rec[0])
		if addr == "" || strings.EqualFold(addr, "address") {
			continue
		}
		p := place{Address: addr}
		if len(rec) >= 3 {
			lat, errLat := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
			lng, errLng := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
			if errLat == nil && errLng == nil {
				p.Lat, p.Lng = &lat, &lng
			}
		}
		out = append(out, p)
	}
	return out, nil
}

type routeBody struct {
	Waypoints []place `json:"waypoints"`
	Mode      string  `json:"mode"`
}

// draws count ordered pairs with distinct ends
func makePairs(places []place, count int, r *rand.Rand) [][2]place {
	pairs := make([][2]place, 0, count)
	for len(pairs) < count {
		a := r.Intn(len(places))
		b := r.Intn(len(places))
		if a == b {
			continue
		}
		pairs = append(pairs, [2]place{places[a], places[b]})
	}
	return pairs
}

// one sample per request
type sample struct {
	Timestamp time.Time
	Latency   time.Duration
	Status    int
	Fallback  bool
	Reason    string
	ErrorMsg  string
	PairIndex int
}

type summary struct {
	StartTime     time.Time      `json:"start"`
	EndTime       time.Time      `json:"end"`
	DurationSec   float64        `json:"duration_sec"`
	TotalRequests int64          `json:"total"`
	SuccessCount  int64          `json:"success"`
	FallbackCount int64          `json:"fallback"`
	ErrorCount    int64          `json:"errors"`
	Reasons       map[string]int `json:"fallback_reasons,omitempty"`
	ThroughputRPS float64        `json:"throughput_rps"`
	P50Ms         float64        `json:"p50_ms"`
	P95Ms         float64        `json:"p95_ms"`
	P99Ms         float64        `json:"p99_ms"`
	Concurrency   int            `json:"concurrency"`
	Pairs         int            `json:"pairs"`
	Mode          string         `json:"mode"`
	TargetURL     string         `json:"target"`
}

type aggregatedResult struct {
	total    int64
	success  int64
	fallback int64
	errors   int64
	reasons  map[string]int
	latMs    []float64
}

func main() {
	cfg := loadConfig()
	if cfg.Concurrency <= 0 || cfg.Pairs <= 0 {
		log.Fatalf("concurrency and pairs must be positive")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPrefix), 0o750); err != nil {
		log.Fatalf("mkdir results: %v", err)
	}
	prefix := fmt.Sprintf("%s_%s", cfg.OutputPrefix, time.Now().UTC().Format("20060102_150405Z"))

	seed := time.Now().UnixNano()
	r := rand.New(rand.NewSource(seed))

	var places []place
	if strings.TrimSpace(cfg.PlacesFile) != "" {
		ps, err := loadPlacesCSV(cfg.PlacesFile)
		if err != nil {
			log.Printf("WARN: failed to load places from %q: %v; using built-in list", cfg.PlacesFile, err)
		} else {
			places = ps
		}
	}
	if len(places) < 2 {
		places = places[:0]
		for _, a := range defaultPlaces {
			places = append(places, place{Address: a})
		}
	}
	pairs := makePairs(places, cfg.Pairs, r)
	imax := uint64(len(pairs)) - 1

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: 4 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:        256,
			MaxIdleConnsPerHost: 64,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: cfg.RequestTimeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	csvPath := prefix + "_samples.csv"
	jsonPath := prefix + "_summary.json"
	csvFile, err := os.Create(filepath.Clean(csvPath))
	if err != nil {
		log.Printf("open csv: %v", err)
		return
	}
	defer func() { _ = csvFile.Close() }()
	csvWriter := csv.NewWriter(csvFile)

	samplesChan := make(chan sample, 1024)
	resultsChan := make(chan aggregatedResult, 1)
	go func() {
		_ = csvWriter.Write([]string{"timestamp", "latency_ms", "status", "fallback", "reason", "error", "pair_idx"})
		agg := aggregatedResult{reasons: map[string]int{}}
		for s := range samplesChan {
			agg.total++
			switch {
			case s.ErrorMsg != "":
				agg.errors++
			case s.Fallback:
				agg.fallback++
				agg.reasons[s.Reason]++
				agg.latMs = append(agg.latMs, float64(s.Latency.Microseconds())/1000.0)
			default:
				agg.success++
				agg.latMs = append(agg.latMs, float64(s.Latency.Microseconds())/1000.0)
			}
			_ = csvWriter.Write([]string{
				s.Timestamp.UTC().Format(time.RFC3339Nano),
				fmt.Sprintf("%.3f", float64(s.Latency.Microseconds())/1000.0),
				strconv.Itoa(s.Status),
				strconv.FormatBool(s.Fallback),
				s.Reason,
				s.ErrorMsg,
				strconv.Itoa(s.PairIndex),
			})
		}
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			log.Printf("csv flush error: %v", err)
		}
		resultsChan <- agg
	}()

	startTime := time.Now()
	log.Printf("routeload start target=%s mode=%s dur=%s conc=%d pairs=%d",
		cfg.TargetURL, cfg.Mode, cfg.Duration, cfg.Concurrency, len(pairs))

	var wg sync.WaitGroup
	wg.Add(cfg.Concurrency)
	for workerID := range cfg.Concurrency {
		go func(id int) {
			defer wg.Done()
			rWorker := rand.New(rand.NewSource(seed + int64(id) + 1))
			zipfDist := rand.NewZipf(rWorker, cfg.ZipfS, cfg.ZipfV, imax)
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				idx := int(zipfDist.Uint64())
				if idx >= len(pairs) {
					continue
				}
				mode := cfg.Mode
				if mode == "mixed" {
					mode = [2]string{"car", "walking"}[rWorker.Intn(2)]
				}
				s := doRequest(ctx, httpClient, cfg.TargetURL, routeBody{
					Waypoints: []place{pairs[idx][0], pairs[idx][1]},
					Mode:      mode,
				})
				s.PairIndex = idx

				select {
				case samplesChan <- s:
				case <-ctx.Done():
					return
				}
			}
		}(workerID)
	}

	go func() {
		<-ctx.Done()
		wg.Wait()
		close(samplesChan)
	}()

	agg := <-resultsChan
	endTime := time.Now()
	elapsed := endTime.Sub(startTime).Seconds()

	sort.Float64s(agg.latMs)
	runSummary := summary{
		StartTime:     startTime.UTC(),
		EndTime:       endTime.UTC(),
		DurationSec:   elapsed,
		TotalRequests: agg.total,
		SuccessCount:  agg.success,
		FallbackCount: agg.fallback,
		ErrorCount:    agg.errors,
		Reasons:       agg.reasons,
		ThroughputRPS: float64(agg.total) / elapsed,
		P50Ms:         percentile(agg.latMs, 50),
		P95Ms:         percentile(agg.latMs, 95),
		P99Ms:         percentile(agg.latMs, 99),
		Concurrency:   cfg.Concurrency,
		Pairs:         len(pairs),
		Mode:          cfg.Mode,
		TargetURL:     cfg.TargetURL,
	}

	if jsonFile, err := os.Create(filepath.Clean(jsonPath)); err == nil {
		enc := json.NewEncoder(jsonFile)
		enc.SetIndent("", "  ")
		_ = enc.Encode(runSummary)
		_ = jsonFile.Close()
	}

	log.Printf("done: total=%d ok=%d fallback=%d err=%d thr=%.2f rps p50=%.1fms p95=%.1fms p99=%.1fms",
		agg.total, agg.success, agg.fallback, agg.errors, runSummary.ThroughputRPS,
		runSummary.P50Ms, runSummary.P95Ms, runSummary.P99Ms)
	log.Printf("wrote %s and %s", jsonPath, csvPath)
}

func doRequest(ctx context.Context, c *http.Client, target string, body routeBody) sample {
	s := sample{Timestamp: time.Now()}
	b, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(b))
	if err != nil {
		s.ErrorMsg = err.Error()
		return s
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	s.Latency = time.Since(s.Timestamp)
	if err != nil {
		s.ErrorMsg = err.Error()
		return s
	}
	defer func() { _ = resp.Body.Close() }()

	s.Status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		s.ErrorMsg = fmt.Sprintf("status=%d", resp.StatusCode)
		return s
	}
	var out struct {
		Fallback       bool   `json:"fallback"`
		FallbackReason string `json:"fallbackReason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		s.ErrorMsg = "decode: " + err.Error()
		return s
	}
	s.Fallback, s.Reason = out.Fallback, out.FallbackReason
	return s
}

func percentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sortedValues[0]
	}
	if p >= 100 {
		return sortedValues[len(sortedValues)-1]
	}
	k := (p / 100.0) * float64(len(sortedValues)-1)
	f := math.Floor(k)
	i := int(f)
	if i >= len(sortedValues)-1 {
		return sortedValues[len(sortedValues)-1]
	}
	d := k - f
	return sortedValues[i]*(1-d) + sortedValues[i+1]*d
}
