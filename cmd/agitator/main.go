// Package main is a WebSocket load generator for the escape server. Each
// simulated client connects to /ws and fires random player commands.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/engine"
	"github.com/MRamiBalles/JailbreakIdle/internal/network"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Output         string
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Accepted         int64
	Rejected         int64
	RateLimited      int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 100*time.Millisecond, "Command interval per client")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	output := flag.String("out", "agitator_results.json", "Results file")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Output:         *output,
	}

	fmt.Println("=========================================")
	fmt.Println("AGITATOR - WebSocket load generator")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Clients:  %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	stats := runStressTest(ctx, config)
	printResults(stats, config)
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{Latencies: make([]time.Duration, 0, 10000)}
	var wg sync.WaitGroup

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("Progress: sent=%s recv=%s errors=%d\n",
					humanize.Comma(atomic.LoadInt64(&stats.MessagesSent)),
					humanize.Comma(atomic.LoadInt64(&stats.MessagesReceived)),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("client %d: connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	// Acks arrive in send order, so the oldest pending send time matches.
	pending := make(chan time.Time, 1024)
	go func() {
		for {
			var frame struct {
				Type string      `json:"type"`
				Data network.Ack `json:"data"`
			}
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)
			if frame.Type != network.FrameAck {
				continue
			}
			select {
			case sent := <-pending:
				stats.record(time.Since(sent))
			default:
			}
			switch {
			case frame.Data.Accepted:
				atomic.AddInt64(&stats.Accepted, 1)
			case frame.Data.Reason == "rate limited":
				atomic.AddInt64(&stats.RateLimited, 1)
			default:
				atomic.AddInt64(&stats.Rejected, 1)
			}
		}
	}()

	rng := rand.New(rand.NewSource(int64(clientID) + time.Now().UnixNano()))
	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			action := generateRandomAction(rng)
			select {
			case pending <- time.Now():
			default:
			}
			if err := conn.WriteJSON(action); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.MessagesSent, 1)
		}
	}
}

func (s *Stats) record(latency time.Duration) {
	s.mu.Lock()
	s.Latencies = append(s.Latencies, latency)
	s.mu.Unlock()
}

// generateRandomAction picks a command that is safe to spam: nothing that
// wipes or replaces the game.
func generateRandomAction(rng *rand.Rand) network.PlayerAction {
	var cmd engine.Command
	switch rng.Intn(6) {
	case 0:
		a := catalog.Actions[rng.Intn(len(catalog.Actions))]
		cmd = engine.Command{Type: engine.CmdStartAction, ID: string(a.ID)}
	case 1:
		u := catalog.Upgrades[rng.Intn(len(catalog.Upgrades))]
		cmd = engine.Command{Type: engine.CmdPurchaseUpgrade, ID: string(u.ID)}
	case 2:
		cmd = engine.Command{Type: engine.CmdClickNode, Value: rng.Intn(25)}
	case 3:
		cmd = engine.Command{Type: engine.CmdHireLawyer, Value: rng.Intn(len(catalog.LawyerTiers))}
	case 4:
		cmd = engine.Command{Type: engine.CmdCollectEvidence, Value: rng.Intn(4)}
	default:
		cmd = engine.Command{Type: engine.CmdReroll}
	}
	payload, _ := json.Marshal(cmd)
	return network.PlayerAction{Type: string(cmd.Type), Payload: payload}
}

func printResults(stats *Stats, config Config) {
	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	errs := atomic.LoadInt64(&stats.Errors)
	throughput := float64(sent) / config.TestDuration.Seconds()

	fmt.Println("\n=========================================")
	fmt.Println("RESULTS")
	fmt.Println("=========================================")
	fmt.Printf("Commands sent:     %s\n", humanize.Comma(sent))
	fmt.Printf("Frames received:   %s\n", humanize.Comma(recv))
	fmt.Printf("Accepted:          %s\n", humanize.Comma(atomic.LoadInt64(&stats.Accepted)))
	fmt.Printf("Rejected:          %s\n", humanize.Comma(atomic.LoadInt64(&stats.Rejected)))
	fmt.Printf("Rate limited:      %s\n", humanize.Comma(atomic.LoadInt64(&stats.RateLimited)))
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Throughput:        %.2f cmd/sec\n", throughput)

	stats.mu.Lock()
	lat := stats.Latencies
	stats.mu.Unlock()
	if len(lat) > 0 {
		var total time.Duration
		lo, hi := lat[0], lat[0]
		for _, l := range lat {
			total += l
			lo = min(lo, l)
			hi = max(hi, l)
		}
		fmt.Printf("\nAck latency:\n  Min: %v\n  Avg: %v\n  Max: %v\n", lo, total/time.Duration(len(lat)), hi)
	}

	results := map[string]any{
		"commands_sent":      sent,
		"frames_received":    recv,
		"accepted":           atomic.LoadInt64(&stats.Accepted),
		"rejected":           atomic.LoadInt64(&stats.Rejected),
		"rate_limited":       atomic.LoadInt64(&stats.RateLimited),
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]any{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}
	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(config.Output, jsonData, 0o644); err != nil {
		log.Printf("write results: %v", err)
		return
	}
	fmt.Printf("\nResults saved to %s\n", config.Output)
}
