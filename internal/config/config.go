package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Build-time variables injected via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// DefaultRegistryURL is used when ROVER_REGISTRY_URL is not set.
const DefaultRegistryURL = "http://127.0.0.1:7470"

// Config holds all agent configuration. It is immutable after startup;
// the values an agent needs on the far side of a migration travel in its
// snapshot, not here.
type Config struct {
	// Label is the id string printed in log messages.
	Label string

	// RestraintSleep is the pause at the top of every cycle, so that
	// observers can keep pace.
	RestraintSleep time.Duration

	// RetrySleep is the delay between registry queries that came back
	// empty.
	RetrySleep time.Duration

	// StayPeriod is how long the agent lingers when selection picks the
	// host it is already on.
	StayPeriod time.Duration

	// MaxResults bounds the number of hosts requested from the registry.
	MaxResults int

	// StartTagged marks this agent "it" at startup.
	StartTagged bool

	// Debug enables trace and diagnostic messages.
	Debug bool

	// RegistryURL is the base URL of the registry service.
	RegistryURL string
}

// Default returns a Config populated with the stock timings.
func Default() *Config {
	return &Config{
		Label:          "anon",
		RestraintSleep: 5 * time.Second,
		RetrySleep:     20 * time.Second,
		StayPeriod:     12 * time.Second,
		MaxResults:     8,
		RegistryURL:    DefaultRegistryURL,
	}
}

// ParseFlags builds a Config from command-line arguments and the
// environment. A bare "?" argument is accepted as an alias for -help.
// Unknown flags are an error. Negative durations and counts are clamped
// to zero rather than rejected.
func ParseFlags(name string, args []string, output io.Writer) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s {?,-h,-help}|[-debug][-id string][-rs ms][-qs ms][-sp ms][-mr n][-it]\n", name)
		fs.PrintDefaults()
	}

	label := fs.String("id", cfg.Label, "id string printed in log messages")
	rs := fs.Int64("rs", cfg.RestraintSleep.Milliseconds(), "restraint sleep in milliseconds")
	qs := fs.Int64("qs", cfg.RetrySleep.Milliseconds(), "registry query retry delay in milliseconds")
	sp := fs.Int64("sp", cfg.StayPeriod.Milliseconds(), "staying period on the current host in milliseconds")
	mr := fs.Int("mr", cfg.MaxResults, "registry query max results limit")
	it := fs.Bool("it", false, "start this agent tagged (\"it\")")
	debug := fs.Bool("debug", false, "enable trace and diagnostic messages")

	for _, av := range args {
		if av == "?" {
			fs.Usage()
			return nil, flag.ErrHelp
		}
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unknown commandline argument: %s", fs.Arg(0))
	}

	cfg.Label = *label
	cfg.RestraintSleep = clampMs(*rs)
	cfg.RetrySleep = clampMs(*qs)
	cfg.StayPeriod = clampMs(*sp)
	cfg.MaxResults = max(0, *mr)
	cfg.StartTagged = *it
	cfg.Debug = *debug

	if v := strings.TrimSpace(os.Getenv("ROVER_REGISTRY_URL")); v != "" {
		cfg.RegistryURL = v
	}

	return cfg, nil
}

func clampMs(ms int64) time.Duration {
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

// NewLogger creates the structured logger agents and daemons log through.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
