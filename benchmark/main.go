// Package main provides a performance benchmarking tool for the tierscope CLI.
// It measures execution times across roster sizes and command types,
// running each test multiple times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - tierscope binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where generated rosters and SQLite stores are written
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (untracked average, cold run and average of warm runs).
type BenchmarkResult struct {
	Roster       string
	Command      string
	UntrackedAvg string
	ColdTime     string
	WarmTime     string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	Workers       int
	UntrackedRuns int
	TrackedRuns   int
	RosterSizes   []int
	Commands      []string
}

// completionPhrases marks a successful text run per command.
var completionPhrases = map[string]string{
	"classify": "Classification completed in",
	"compare":  "Comparison completed in",
	"evaluate": "Evaluation completed in",
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:       os.Args[1],
		Timeout:       5 * time.Minute,
		Workers:       8,
		UntrackedRuns: 3,
		TrackedRuns:   4,
		RosterSizes:   []int{100, 1000, 10000},
		Commands:      []string{"classify", "compare", "evaluate"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	rosters, err := generateRosters(config)
	if err != nil {
		fmt.Printf("Failed to generate rosters: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config, rosters)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the tierscope binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("tierscope"); err != nil {
		return fmt.Errorf("tierscope binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// generateRosters writes one CSV roster per configured size and returns their paths by name
func generateRosters(config BenchmarkConfig) (map[string]string, error) {
	rosters := make(map[string]string, len(config.RosterSizes))
	for _, size := range config.RosterSizes {
		name := fmt.Sprintf("students-%d", size)
		path := filepath.Join(config.WorkDir, name+".csv")
		fmt.Printf("Generating %s\n", path)

		cmd := exec.Command("tierscope", "generate", "--count", strconv.Itoa(size), "--output-file", path)
		cmd.Env = benchmarkEnv(config, "none")
		if output, err := cmd.CombinedOutput(); err != nil {
			return nil, fmt.Errorf("generate %d students: %w\nOutput: %s", size, err, string(output))
		}
		rosters[name] = path
	}
	return rosters, nil
}

// benchmarkEnv keeps SQLite stores inside the work dir and sets the run tracking backend.
func benchmarkEnv(config BenchmarkConfig, runsBackend string) []string {
	return append(os.Environ(),
		"HOME="+config.WorkDir,
		"TIERSCOPE_RUNS_BACKEND="+runsBackend,
		"TIERSCOPE_WORKERS="+strconv.Itoa(config.Workers),
		"TIERSCOPE_LOG_LEVEL=warn",
		"TIERSCOPE_COLOR=no",
	)
}

// runBenchmarks executes all benchmark tests across generated rosters
func runBenchmarks(config BenchmarkConfig, rosters map[string]string) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d rosters, %v timeout, %d workers, untracked: %d runs, tracked: %d runs\n",
		len(rosters), config.Timeout, config.Workers, config.UntrackedRuns, config.TrackedRuns)

	for _, size := range config.RosterSizes {
		name := fmt.Sprintf("students-%d", size)
		fmt.Printf("Benchmarking %s\n", name)
		for _, command := range config.Commands {
			results = append(results, runBenchmarkSuite(config, name, rosters[name], command))
		}
	}

	return results
}

// runBenchmarkSuite runs both untracked and tracked benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, name, rosterPath, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, name)

	// Helper to run a benchmark phase
	runPhase := func(runsBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, rosterPath, command, runsBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: runs without history tracking
	_, untrackedAvg := runPhase("none", config.UntrackedRuns, "Untracked")

	// Phase 2: runs recorded in the SQLite run store
	coldTime, warmAvg := runPhase("sqlite", config.TrackedRuns, "Tracked")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  Untracked average: %s, Cold time: %s, Warm average: %s\n", untrackedAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Roster:       name,
		Command:      command,
		UntrackedAvg: untrackedAvg,
		ColdTime:     coldTimeStr,
		WarmTime:     warmAvg,
	}
}

// runBenchmark executes a tierscope command multiple times with the given run backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, rosterPath, command, runsBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("tierscope", command, rosterPath)
		cmd.Env = benchmarkEnv(config, runsBackend)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, command) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	phrase, ok := completionPhrases[command]
	return ok && strings.Contains(string(output), phrase)
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("tierscope_benchmark_%s.csv", timestamp))

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

	if err := writer.Write([]string{"roster", "cmd", "untracked_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Roster, result.Command, result.UntrackedAvg, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range config.Commands {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-16s: Untracked: %s, Cold: %s, Warm: %s\n", result.Roster, result.UntrackedAvg, result.ColdTime, result.WarmTime)
			}
		}
	}
}
