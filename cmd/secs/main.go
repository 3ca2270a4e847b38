package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/oriumgames/secs"
)

// Counter is a plain numeric resource.
type Counter float64

// Gravity is the constant acceleration applied by the demo scripts.
type Gravity [3]float64

// Velocity is integrated from Gravity each tick.
type Velocity [3]float64

// Position is integrated from Velocity each tick.
type Position [3]float64

// demoScript runs when no -script is given.
const demoScript = `
system {
    name = "count",
    writes = { "counter" },
    run = function(bundle)
        bundle:write("counter", bundle:read("counter") + 1)
    end,
}

system {
    name = "fall",
    reads = { "gravity", "delta_time" },
    writes = { "velocity" },
    run = function(bundle)
        local g, dt = bundle:read("gravity"), bundle:read("delta_time")
        local v = bundle:read("velocity")
        bundle:write("velocity", vec3(v.x + g.x * dt, v.y + g.y * dt, v.z + g.z * dt))
    end,
}

system {
    name = "move",
    stage = "after",
    reads = { "velocity", "delta_time" },
    writes = { "position" },
    run = function(bundle)
        local v, dt = bundle:read("velocity"), bundle:read("delta_time")
        local p = bundle:read("position")
        bundle:write("position", vec3(p.x + v.x * dt, p.y + v.y * dt, p.z + v.z * dt))
    end,
}
`

// scriptFlags collects repeated -script values.
type scriptFlags []string

func (s *scriptFlags) String() string { return strings.Join(*s, ",") }

func (s *scriptFlags) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		ticks      = flag.Uint64("ticks", 0, "run this many ticks and exit (0 runs until interrupted)")
		schema     = flag.Bool("schema", false, "print the config JSON schema and exit")
		scripts    scriptFlags
	)
	flag.Var(&scripts, "script", "Lua script to load (repeatable)")
	flag.Parse()

	if *schema {
		out, err := secs.ConfigSchema()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	cfg := secs.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = secs.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	var (
		counter  Counter
		gravity  = Gravity{0, -9.81, 0}
		velocity Velocity
		position = Position{0, 100, 0}
	)

	b := secs.NewBuilder().
		Config(cfg).
		Logger(logger).
		Resource("counter", &counter, secs.Number[Counter]()).
		Resource("gravity", &gravity, secs.Vector[Gravity]()).
		Resource("velocity", &velocity, secs.Vector[Velocity]()).
		Resource("position", &position, secs.Vector[Position]())

	if len(scripts) == 0 {
		b.Script("demo.lua", demoScript)
	}
	for _, path := range scripts {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		b.Script(filepath.Base(path), string(src))
	}

	mngr, err := b.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer mngr.Shutdown()

	if *ticks > 0 {
		for range *ticks {
			mngr.RunOnce()
		}
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		mngr.Start(ctx)
		logger.Info("secs: running", "tick_rate", cfg.TickRate, "units", len(mngr.Scheduler().Units()))
		<-ctx.Done()
		mngr.Stop()
	}

	logger.Info("secs: finished",
		"ticks", mngr.Scheduler().Ticks(),
		"counter", float64(counter),
		"velocity", velocity,
		"position", position)
}
