package perf

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/cmd/util"
	"github.com/ValentinKolb/svsock/lib/bitvec"
	"github.com/ValentinKolb/svsock/sock"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
	"time"
)

var (
	PerfCmd = &cobra.Command{
		Use:   "perf",
		Short: "Measures round trip latency against a peer channel",
		Long: `Measures the round trip latency of word frames or lines against a channel that
sends everything back (serve --channels "loop=loop:32,echo=echo").`,
		PreRunE: processPerfConfig,
		RunE:    run,
	}
	perfRounds = 1000
	perfWidth  = 32
	perfMode   = "words"
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags
	util.SetupClientFlags(PerfCmd)

	key := "rounds"
	PerfCmd.Flags().Int(key, 1000, util.WrapString("Number of round trips to measure"))
	key = "width"
	PerfCmd.Flags().Int(key, 32, util.WrapString("Bit width of the word frames (mode words)"))
	key = "mode"
	PerfCmd.Flags().String(key, "words", util.WrapString("What to send: words (Put/Get against a loop channel) or lines (WriteLine/ReadLine against an echo channel)"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	perfRounds = viper.GetInt("rounds")
	perfWidth = viper.GetInt("width")
	perfMode = viper.GetString("mode")

	if perfRounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", perfRounds)
	}
	if perfWidth <= 0 {
		return fmt.Errorf("width must be positive, got %d", perfWidth)
	}
	if perfMode != "words" && perfMode != "lines" {
		return fmt.Errorf("invalid mode %s (expected words or lines)", perfMode)
	}
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Round trip latency test for svsock peers")

	config, err := util.GetClientConfig()
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Mode: %s, Rounds: %d, Width: %d\n", perfMode, perfRounds, perfWidth)
	fmt.Println()

	ctx, cancel := util.SignalContext()
	defer cancel()

	handle, err := util.OpenHandle(ctx)
	if err != nil {
		return err
	}
	defer handle.Close()

	roundTrip := roundTripWords
	if perfMode == "lines" {
		roundTrip = roundTripLines
	}

	histogram := gometrics.NewHistogram(gometrics.NewUniformSample(perfRounds))
	start := time.Now()
	for i := 0; i < perfRounds; i++ {
		if ctx.Err() != nil {
			break
		}
		t := time.Now()
		if err := roundTrip(handle, i); err != nil {
			return fmt.Errorf("round %d failed: %w", i, err)
		}
		histogram.Update(time.Since(t).Microseconds())
	}
	elapsed := time.Since(start)

	printResults(histogram.Snapshot(), elapsed)
	return nil
}

// roundTripWords sends one frame and waits for the same frame to come back
func roundTripWords(h *sock.Handle, i int) error {
	words := make([]uint32, bitvec.WordCount(perfWidth))
	for j := range words {
		words[j] = uint32(i + j)
	}
	bitvec.Mask(words, perfWidth)

	if err := h.Put(perfWidth, words); err != nil {
		return err
	}
	got := make([]uint32, len(words))
	if err := pollGet(h, got); err != nil {
		return err
	}
	for j := range words {
		if got[j] != words[j] {
			return fmt.Errorf("expected %s, got %s", bitvec.FormatHex(words, perfWidth), bitvec.FormatHex(got, perfWidth))
		}
	}
	return nil
}

// roundTripLines sends one line and waits for the echo
func roundTripLines(h *sock.Handle, i int) error {
	text := fmt.Sprintf("ping %d", i)
	if err := h.WriteLine(text); err != nil {
		return err
	}
	for {
		got, err := h.ReadLine()
		if errors.Is(err, sock.ErrNoData) {
			continue
		}
		if err != nil {
			return err
		}
		if got != text {
			return fmt.Errorf("expected %q, got %q", text, got)
		}
		return nil
	}
}

// pollGet receives one frame, polling non-blocking handles
func pollGet(h *sock.Handle, dst []uint32) error {
	for {
		err := h.Get(perfWidth, dst)
		if !errors.Is(err, sock.ErrNoData) {
			return err
		}
	}
}

func printResults(s gometrics.Histogram, elapsed time.Duration) {
	ps := s.Percentiles([]float64{0.5, 0.95, 0.99})

	fmt.Println("Results:")
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("  %-12s: %d\n", "Round trips", s.Count())
	fmt.Printf("  %-12s: %s\n", "Total", elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		fmt.Printf("  %-12s: %.0f ops/s\n", "Throughput", float64(s.Count())/elapsed.Seconds())
	}
	fmt.Printf("  %-12s: %d µs\n", "Min", s.Min())
	fmt.Printf("  %-12s: %.1f µs\n", "Mean", s.Mean())
	fmt.Printf("  %-12s: %.1f µs\n", "p50", ps[0])
	fmt.Printf("  %-12s: %.1f µs\n", "p95", ps[1])
	fmt.Printf("  %-12s: %.1f µs\n", "p99", ps[2])
	fmt.Printf("  %-12s: %d µs\n", "Max", s.Max())
	fmt.Printf("  %-12s: %.1f µs\n", "StdDev", s.StdDev())
}
