package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SpinResponse mirrors the body of a successful POST /api/spin
type SpinResponse struct {
	SpinID uint64 `json:"spinId"`
	Saldo  int64  `json:"saldo"`
	Prize  struct {
		Name string `json:"name"`
	} `json:"prize"`
}

// TestResult contains metrics for a single spin request
type TestResult struct {
	Player       int
	StatusCode   int
	ResponseTime time.Duration
	Spin         *SpinResponse
	Error        error
}

// TestStats contains aggregated test statistics
type TestStats struct {
	TotalRequests int
	Won           int
	NoSpinsLeft   int
	Failed        int
	TotalTime     time.Duration
	ResponseTimes []time.Duration
	SpinIDs       []uint64
	PrizeCounts   map[string]int
	ErrorCounts   map[string]int
}

// player is one browser: its own cookie jar, hence its own identity
type player struct {
	client *http.Client
}

func main() {
	concurrency := flag.Int("c", 10, "Number of concurrent goroutines")
	players := flag.Int("p", 5, "Number of simulated players")
	credits := flag.Int64("credits", 10, "Spins granted to each player before the test")
	extra := flag.Int("extra", 2, "Spins each player attempts beyond its credits")
	baseURL := flag.String("url", "http://localhost:3000", "Base URL for the API")
	adminKey := flag.String("admin", os.Getenv("ADMIN_KEY"), "Administrative secret used to mint funding codes")
	delayMs := flag.Int("delay", 0, "Maximum random delay between requests in milliseconds")
	flag.Parse()

	if *adminKey == "" {
		fmt.Println("An admin key is required (-admin or ADMIN_KEY)")
		os.Exit(2)
	}

	fmt.Printf("Funding %d players with %d spins each\n", *players, *credits)
	pool := make([]*player, *players)
	for i := range pool {
		p, err := fundPlayer(*baseURL, *adminKey, *credits)
		if err != nil {
			fmt.Printf("Failed to fund player %d: %v\n", i, err)
			os.Exit(1)
		}
		pool[i] = p
	}

	perPlayer := int(*credits) + *extra
	total := perPlayer * *players
	fmt.Printf("Concurrency: %d goroutines, total spin requests: %d\n", *concurrency, total)

	jobs := make(chan int, total)
	for i := 0; i < *players; i++ {
		for j := 0; j < perPlayer; j++ {
			jobs <- i
		}
	}
	close(jobs)

	results := make(chan TestResult, total)
	var wg sync.WaitGroup
	startTime := time.Now()
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(*baseURL, *delayMs, pool, jobs, results)
		}()
	}
	wg.Wait()
	close(results)

	stats := &TestStats{
		TotalRequests: total,
		TotalTime:     time.Since(startTime),
		PrizeCounts:   make(map[string]int),
		ErrorCounts:   make(map[string]int),
	}
	for r := range results {
		stats.ResponseTimes = append(stats.ResponseTimes, r.ResponseTime)
		switch {
		case r.Error != nil:
			stats.Failed++
			stats.ErrorCounts[r.Error.Error()]++
		case r.StatusCode == http.StatusOK:
			stats.Won++
			stats.SpinIDs = append(stats.SpinIDs, r.Spin.SpinID)
			stats.PrizeCounts[r.Spin.Prize.Name]++
		case r.StatusCode == http.StatusBadRequest:
			stats.NoSpinsLeft++
		default:
			stats.Failed++
			stats.ErrorCounts[fmt.Sprintf("HTTP status code %d", r.StatusCode)]++
		}
	}

	printResults(stats, int(*credits)**players)
}

// fundPlayer mints a single-use code and redeems it from a fresh identity
func fundPlayer(baseURL, adminKey string, credits int64) (*player, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	p := &player{client: &http.Client{Jar: jar, Timeout: 10 * time.Second}}

	code := "LOAD" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
	if err := p.post(baseURL+"/api/admin/add-code", map[string]any{
		"code": code, "amount": credits, "secret": adminKey,
	}, nil); err != nil {
		return nil, fmt.Errorf("add code: %w", err)
	}
	if err := p.post(baseURL+"/api/redeem", map[string]any{"code": code}, nil); err != nil {
		return nil, fmt.Errorf("redeem: %w", err)
	}
	return p, nil
}

func (p *player) post(url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := p.client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP status code %d", resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func worker(baseURL string, delayMs int, pool []*player, jobs <-chan int, results chan<- TestResult) {
	for idx := range jobs {
		if delayMs > 0 {
			time.Sleep(time.Duration(rand.IntN(delayMs)) * time.Millisecond)
		}

		start := time.Now()
		resp, err := pool[idx].client.Post(baseURL+"/api/spin", "application/json", nil)
		result := TestResult{Player: idx, ResponseTime: time.Since(start)}
		if err != nil {
			result.Error = err
			results <- result
			continue
		}

		result.StatusCode = resp.StatusCode
		if resp.StatusCode == http.StatusOK {
			var spin SpinResponse
			if err := json.NewDecoder(resp.Body).Decode(&spin); err != nil {
				result.Error = err
			} else {
				result.Spin = &spin
			}
		}
		resp.Body.Close()
		results <- result
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[len(sorted)*p/100]
}

func printResults(stats *TestStats, expectedWins int) {
	slices.Sort(stats.ResponseTimes)
	slices.Sort(stats.SpinIDs)

	duplicates := 0
	for i := 1; i < len(stats.SpinIDs); i++ {
		if stats.SpinIDs[i] == stats.SpinIDs[i-1] {
			duplicates++
		}
	}

	fmt.Println("\n================= TEST RESULTS =================")
	fmt.Printf("Total Requests:      %d\n", stats.TotalRequests)
	fmt.Printf("Spins Won:           %d (expected %d)\n", stats.Won, expectedWins)
	fmt.Printf("Sem giros:           %d\n", stats.NoSpinsLeft)
	fmt.Printf("Failed Requests:     %d\n", stats.Failed)
	fmt.Printf("Total Test Time:     %.2f seconds\n", stats.TotalTime.Seconds())
	fmt.Printf("Throughput:          %.2f req/s\n", float64(stats.TotalRequests)/stats.TotalTime.Seconds())

	fmt.Println("\n----------------- RESPONSE TIMES -----------------")
	fmt.Printf("P50 Response:        %v\n", percentile(stats.ResponseTimes, 50))
	fmt.Printf("P90 Response:        %v\n", percentile(stats.ResponseTimes, 90))
	fmt.Printf("P99 Response:        %v\n", percentile(stats.ResponseTimes, 99))

	fmt.Println("\n----------------- PRIZE DISTRIBUTION -----------------")
	for name, count := range stats.PrizeCounts {
		fmt.Printf("%-20s: %d (%.1f%%)\n", name, count, float64(count)/float64(max(stats.Won, 1))*100)
	}

	if len(stats.ErrorCounts) > 0 {
		fmt.Println("\n----------------- ERROR DISTRIBUTION -----------------")
		for msg, count := range stats.ErrorCounts {
			fmt.Printf("%-40s: %d\n", msg, count)
		}
	}

	fmt.Println("\n================= CONCLUSION =================")
	if stats.Won == expectedWins && duplicates == 0 && stats.Failed == 0 {
		fmt.Println("✅ Every credit produced exactly one spin and every spin id is unique")
	} else {
		fmt.Printf("❌ Ledger mismatch: won %d of %d, %d duplicate spin ids, %d failures\n",
			stats.Won, expectedWins, duplicates, stats.Failed)
	}
	fmt.Println("================================================")
}
