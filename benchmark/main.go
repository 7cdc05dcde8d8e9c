// Package main provides a performance benchmarking tool for revscore training and evaluation.
// It measures execution times across different dataset sizes, running each test multiple
// times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Every run uses throwaway SQLite stores in a temp directory, so nothing under
// ~/.revscore is touched.
//
// Usage: go run benchmark/main.go [sizes]
//
//	sizes: Comma-separated dataset sizes (default 100,1000,5000)
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/revscore/core"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/internal/iocache"
	"github.com/huangsam/revscore/internal/sentiment"
	"github.com/huangsam/revscore/schema"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Size        int
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Sizes        []int
	Epochs       int
	FeedbackRate float64 // share of comments that also get a human label
	NoCacheRuns  int
	CacheRuns    int
	Seed         uint64
}

// vocabulary is the synthetic lexicon; filler words carry no weight.
var (
	vocabulary = map[string]core.Weight{
		"fast": {Importance: 4, Quality: 1}, "broken": {Importance: 5, Quality: 1},
		"excellent": {Importance: 1, Quality: 5}, "slow": {Importance: 4, Quality: 2},
		"refund": {Importance: 5, Quality: 2}, "cheap": {Importance: 3, Quality: 2},
		"sturdy": {Importance: 2, Quality: 4}, "late": {Importance: 4, Quality: 2},
		"perfect": {Importance: 1, Quality: 5}, "damaged": {Importance: 5, Quality: 1},
	}
	filler = []string{"the", "box", "was", "really", "and", "arrived", "not", "great", "bad", "quite"}
)

func main() {
	config := BenchmarkConfig{
		Sizes:        []int{100, 1000, 5000},
		Epochs:       20,
		FeedbackRate: 0.1,
		NoCacheRuns:  3,
		CacheRuns:    4,
		Seed:         contract.DefaultSeed,
	}
	if len(os.Args) == 2 {
		sizes, err := parseSizes(os.Args[1])
		if err != nil {
			fmt.Printf("Usage: %s [sizes]\n%v\n", os.Args[0], err)
			os.Exit(1)
		}
		config.Sizes = sizes
	}

	results, err := runBenchmarks(context.Background(), config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

func parseSizes(s string) ([]int, error) {
	var sizes []int
	for part := range strings.SplitSeq(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid dataset size %q", part)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

// benchEnv is one seeded review database with its own model and cache files.
type benchEnv struct {
	dir     string
	reviews *iocache.ReviewStoreImpl
	lexicon *core.Lexicon
}

// newBenchEnv seeds size synthetic comments and the matching share of feedback.
func newBenchEnv(ctx context.Context, config BenchmarkConfig, size int) (*benchEnv, error) {
	dir, err := os.MkdirTemp("", "revscore-benchmark-*")
	if err != nil {
		return nil, err
	}
	reviews, err := iocache.NewReviewStore(schema.SQLiteBackend, filepath.Join(dir, "reviews.db"))
	if err != nil {
		return nil, err
	}
	lexicon, err := core.NewLexicon(vocabulary)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(config.Seed, uint64(size)))
	words := make([]string, 0, len(vocabulary)+len(filler))
	for w := range vocabulary {
		words = append(words, w)
	}
	words = append(words, filler...)

	for range size {
		n := 3 + rng.IntN(8)
		tokens := make([]string, n)
		for i := range tokens {
			tokens[i] = words[rng.IntN(len(words))]
		}
		var rating *float64
		if rng.Float64() < 0.7 {
			r := float64(1 + rng.IntN(5))
			rating = &r
		}
		id, err := reviews.AddComment(ctx, strings.Join(tokens, " "), rating, nil)
		if err != nil {
			return nil, err
		}
		if rng.Float64() < config.FeedbackRate {
			importance := float64(rng.IntN(11)) / 2
			quality := 1 + float64(rng.IntN(9))/2
			if err := reviews.AddFeedback(ctx, id, importance, quality); err != nil {
				return nil, err
			}
		}
	}
	return &benchEnv{dir: dir, reviews: reviews, lexicon: lexicon}, nil
}

func (e *benchEnv) close() {
	_ = e.reviews.Close()
	_ = os.RemoveAll(e.dir)
}

// engine builds an engine over the seeded reviews. With a cache backend, the
// verdict cache file survives between engines of the same env.
func (e *benchEnv) engine(config BenchmarkConfig, cacheBackend schema.DatabaseBackend) (*core.Engine, func(), error) {
	cfg := &contract.Config{
		ModelName:    contract.DefaultModelName,
		ModelBackend: schema.FileModels,
		ModelDir:     filepath.Join(e.dir, "models"),
		CacheBackend: cacheBackend,
		Training: contract.TrainingConfig{
			Epochs:          config.Epochs,
			BatchSize:       contract.DefaultBatchSize,
			LearningRate:    contract.DefaultLearningRate,
			Seed:            config.Seed,
			ValidationSplit: contract.DefaultValidationSplit,
		},
	}
	if cacheBackend == schema.SQLiteBackend {
		cfg.CacheDBConnect = filepath.Join(e.dir, "verdicts.db")
	}

	models, err := iocache.NewModelStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	cache, err := iocache.NewVerdictCache(cfg)
	if err != nil {
		return nil, nil, err
	}
	var classifier contract.SentimentClassifier = sentiment.NewLexiconClassifier()
	if cacheBackend != schema.NoneBackend {
		classifier = sentiment.NewCachedClassifier(classifier, cache, string(schema.LexiconSentiment), contract.DefaultCacheTTL, contract.NopLogger())
	}

	mgr := iocache.NewStores(e.reviews, models, cache)
	engine := core.NewEngine(cfg, core.NewScorer(e.lexicon, classifier, 0), mgr, nil, nil)
	closer := func() {
		_ = models.Close()
		_ = cache.Close()
	}
	return engine, closer, nil
}

// runBenchmarks executes all benchmark tests across configured dataset sizes
func runBenchmarks(ctx context.Context, config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: sizes %v, %d epochs, no-cache: %d runs, cache: %d runs\n",
		config.Sizes, config.Epochs, config.NoCacheRuns, config.CacheRuns)

	for _, size := range config.Sizes {
		fmt.Printf("Benchmarking %d comments\n", size)

		env, err := newBenchEnv(ctx, config, size)
		if err != nil {
			return nil, fmt.Errorf("failed to seed %d comments: %w", size, err)
		}

		train := func(ctx context.Context, engine *core.Engine) error {
			_, err := engine.RunTraining(ctx)
			return err
		}
		evaluate := func(ctx context.Context, engine *core.Engine) error {
			_, err := engine.RunEvaluation(ctx, 0)
			return err
		}
		results = append(results,
			runBenchmarkSuite(ctx, config, env, size, "train", train),
			runBenchmarkSuite(ctx, config, env, size, "evaluate", evaluate),
		)
		env.close()
	}

	return results, nil
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(ctx context.Context, config BenchmarkConfig, env *benchEnv, size int, command string, op func(context.Context, *core.Engine) error) BenchmarkResult {
	fmt.Printf("Running %s on %d comments\n", command, size)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend schema.DatabaseBackend, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(ctx, config, env, cacheBackend, numRuns, op)
		if len(times) == 0 {
			avgTime = "FAILED"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase(schema.NoneBackend, config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase(schema.SQLiteBackend, config.CacheRuns, "Cache")

	coldTimeStr := "FAILED"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Size:        size,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes op multiple times with the specified cache backend and returns cold time and warm times
func runBenchmark(ctx context.Context, config BenchmarkConfig, env *benchEnv, cacheBackend schema.DatabaseBackend, numRuns int, op func(context.Context, *core.Engine) error) (coldTime float64, warmTimes []float64) {
	var times []float64
	for range numRuns {
		engine, closer, err := env.engine(config, cacheBackend)
		if err != nil {
			fmt.Printf("  Warning: %v\n", err)
			continue
		}

		start := time.Now()
		if err := op(ctx, engine); err != nil {
			fmt.Printf("  Warning: %v\n", err)
		} else {
			times = append(times, time.Since(start).Seconds())
		}
		closer()
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/revscore_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"comments", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{strconv.Itoa(result.Size), result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "train", "Training:")
	printCommandSummary(results, "evaluate", "Evaluation:")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %6d comments: No-cache: %s, Cold: %s, Warm: %s\n", result.Size, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
