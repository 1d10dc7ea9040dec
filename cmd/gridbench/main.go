// Command gridbench measures row-slice latency against a synthetic
// data file under a Zipfian scroll-position access pattern, comparing
// index granularities.
//
// Adapted from cmd/amethystd/main.go: the same flag.Parse/fatal-on-bad-flag
// startup, the same zipfian() distribution generator (rows near the
// top of the file are scrolled back to far more often than rows deep
// in it, the way real viewport usage clusters near the last scroll
// position), and the same Results/PhaseResult JSON report shape —
// retargeted from LSM write/read/space amplification to gridview's
// row-index granularity vs. slice-latency tradeoff.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"gridview/internal/datafile"
	"gridview/internal/rowindex"
	"gridview/internal/slicer"
)

// fixedSource is a Source that never changes after construction, for
// gridbench's one-shot latency measurements (the live catalog.Entry
// implementation is what actually needs to reflect rebuild swaps).
type fixedSource struct {
	file  datafile.Handle
	index *rowindex.Index
}

func (s *fixedSource) File() datafile.Handle    { return s.file }
func (s *fixedSource) Index() *rowindex.Index { return s.index }

var (
	rowsFlag        = flag.String("rows", "100000", "Number of synthetic rows to generate")
	granularityFlag = flag.String("granularities", "1,16,64,256,1024", "Comma-separated index granularities to compare")
	requestsFlag    = flag.Int("requests", 5000, "Number of slice requests per granularity")
	rowCountFlag    = flag.Int("row-count", 40, "Rows requested per slice (a typical viewport height)")
	zipfSFlag       = flag.Float64("zipf-s", 1.2, "Zipfian skew parameter (higher = more locality near row 0)")
	outFlag         = flag.String("out", "", "Write JSON results to this path instead of stdout")
)

// Results is one granularity's full benchmark outcome.
type Results struct {
	NumRows          int     `json:"num_rows"`
	Granularity      uint64  `json:"granularity"`
	Requests         int     `json:"requests"`
	RowCount         int     `json:"row_count"`
	TotalDurationSec float64 `json:"total_duration_sec"`
	MeanLatencyUs    float64 `json:"mean_latency_us"`
	P50LatencyUs     float64 `json:"p50_latency_us"`
	P99LatencyUs     float64 `json:"p99_latency_us"`
	IndexBytes       int     `json:"index_bytes"`
	BuildDurationSec float64 `json:"build_duration_sec"`
}

// zipfian draws a value in [0, n) skewed toward 0 with skew s, mirroring
// cmd/amethystd/main.go's key-access generator.
func zipfian(n int, s float64) int {
	sum := 0.0
	for i := 1; i <= n; i++ {
		sum += 1.0 / math.Pow(float64(i), s)
	}

	r := rand.Float64() * sum
	partialSum := 0.0
	for i := 1; i <= n; i++ {
		partialSum += 1.0 / math.Pow(float64(i), s)
		if partialSum >= r {
			return i - 1
		}
	}
	return n - 1
}

func main() {
	flag.Parse()
	rand.Seed(time.Now().UnixNano())

	numRows := 0
	if _, err := fmt.Sscanf(*rowsFlag, "%d", &numRows); err != nil || numRows <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --rows must be a positive integer\n")
		os.Exit(1)
	}

	granularities, err := parseGranularities(*granularityFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *requestsFlag <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --requests must be > 0\n")
		os.Exit(1)
	}
	if *rowCountFlag <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --row-count must be > 0\n")
		os.Exit(1)
	}

	dir, err := os.MkdirTemp("", "gridbench-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	dataPath := dir + "/bench.csv"
	if err := generateData(dataPath, numRows); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating data: %v\n", err)
		os.Exit(1)
	}

	var all []Results
	for _, g := range granularities {
		res, err := runGranularity(dataPath, numRows, g, *requestsFlag, *rowCountFlag, *zipfSFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running granularity %d: %v\n", g, err)
			os.Exit(1)
		}
		fmt.Printf("granularity=%d mean=%.1fus p50=%.1fus p99=%.1fus index_bytes=%d\n",
			g, res.MeanLatencyUs, res.P50LatencyUs, res.P99LatencyUs, res.IndexBytes)
		all = append(all, *res)
	}

	out, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling results: %v\n", err)
		os.Exit(1)
	}

	if *outFlag == "" {
		fmt.Println(string(out))
		return
	}
	if err := os.WriteFile(*outFlag, out, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *outFlag, err)
		os.Exit(1)
	}
}

func parseGranularities(s string) ([]uint64, error) {
	parts := strings.Split(s, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		var g uint64
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &g); err != nil || g == 0 {
			return nil, fmt.Errorf("invalid granularity %q", p)
		}
		out = append(out, g)
	}
	return out, nil
}

// generateData writes numRows semicolon-delimited city;temperature
// records, the same two-column shape as spec.md's worked examples.
func generateData(path string, numRows int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := make([]byte, 0, 64*1024)
	for i := 0; i < numRows; i++ {
		w = append(w, fmt.Sprintf("city-%07d;%d.%d\n", i, i%100, i%10)...)
		if len(w) > 32*1024 {
			if _, err := f.Write(w); err != nil {
				return err
			}
			w = w[:0]
		}
	}
	if len(w) > 0 {
		if _, err := f.Write(w); err != nil {
			return err
		}
	}
	return nil
}

func runGranularity(path string, numRows int, granularity uint64, requests, rowCount int, zipfS float64) (*Results, error) {
	buildStart := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	idx, err := rowindex.NewBuilder(0).Build(context.Background(), f, granularity)
	f.Close()
	if err != nil {
		return nil, err
	}
	buildDuration := time.Since(buildStart)

	h, err := datafile.Open(path)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	s := slicer.New(&fixedSource{file: h, index: idx})
	ctx := context.Background()

	latencies := make([]float64, 0, requests)
	start := time.Now()
	for i := 0; i < requests; i++ {
		startRow := zipfian(numRows, zipfS)
		if startRow+rowCount > numRows {
			startRow = numRows - rowCount
		}
		if startRow < 0 {
			startRow = 0
		}

		reqStart := time.Now()
		_, err := s.GetSlice(ctx, slicer.Params{
			StartRow: uint64(startRow),
			RowCount: rowCount,
			StartCol: 0,
			ColCount: 2,
		})
		elapsed := time.Since(reqStart)
		if err != nil {
			return nil, fmt.Errorf("slice at row %d: %w", startRow, err)
		}
		latencies = append(latencies, float64(elapsed.Microseconds()))
	}
	totalDuration := time.Since(start)

	sort.Float64s(latencies)

	return &Results{
		NumRows:          numRows,
		Granularity:      granularity,
		Requests:         requests,
		RowCount:         rowCount,
		TotalDurationSec: totalDuration.Seconds(),
		MeanLatencyUs:    mean(latencies),
		P50LatencyUs:     percentile(latencies, 0.50),
		P99LatencyUs:     percentile(latencies, 0.99),
		IndexBytes:       len(idx.Offsets) * 8,
		BuildDurationSec: buildDuration.Seconds(),
	}, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
