// Command draftsolid converts 2D engineering drawings into 3D solid
// models. Profiles are detected from drawing edges, features are
// inferred from annotations, and the result is exported as binary STL.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"

	"draftsolid/pkg/config"
	"draftsolid/pkg/drawing"
	"draftsolid/pkg/feature"
	"draftsolid/pkg/kernel/sdfx"
	"draftsolid/pkg/parser"
	"draftsolid/pkg/pipeline"
	"draftsolid/pkg/profile"
)

type cli struct {
	Verbose int    `short:"v" type:"counter" help:"Increase log verbosity."`
	Config  string `help:"Path to a YAML config file." type:"path"`

	Convert convertCmd `cmd:"" help:"Convert drawing files to STL solids."`
	Inspect inspectCmd `cmd:"" help:"Report the profiles and features of a drawing without building it."`
}

type appEnv struct {
	ctx context.Context
	cfg config.Config
	log *slog.Logger
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("draftsolid"),
		kong.Description("2D drawing to 3D solid converter."),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if c.Verbose > 0 {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(c.Config)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = kctx.Run(&appEnv{ctx: ctx, cfg: cfg, log: log})
	if err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

type convertCmd struct {
	Output     string   `short:"o" help:"Output STL file (single input) or directory." type:"path"`
	BestEffort bool     `help:"Skip features whose geometry fails instead of aborting the job."`
	Jobs       int      `default:"4" help:"Concurrent conversion jobs."`
	Paths      []string `arg:"" name:"drawing" help:"Drawing files (YAML)." type:"existingfile"`
}

func (c *convertCmd) Run(app *appEnv) error {
	ctx := app.ctx
	cfg := app.cfg
	cfg.BestEffort = cfg.BestEffort || c.BestEffort

	if c.Jobs < 1 {
		c.Jobs = 1
	}
	if len(c.Paths) > 1 && c.Output != "" && strings.HasSuffix(c.Output, ".stl") {
		return fmt.Errorf("-o must be a directory when converting multiple drawings")
	}

	k := sdfx.New()

	type job struct{ in, out string }
	jobs := make(chan job)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for w := 0; w < c.Jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := pipeline.ConvertFile(ctx, j.in, j.out, cfg, k, app.log)
				if err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					app.log.Error("conversion failed", "input", j.in, "error", err)
					continue
				}
				reportWarnings(app.log, j.in, res)
			}
		}()
	}

	for _, in := range c.Paths {
		out, err := c.outputPath(in)
		if err != nil {
			close(jobs)
			wg.Wait()
			return err
		}
		select {
		case jobs <- job{in: in, out: out}:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(c.Paths))
	}
	return nil
}

// outputPath maps an input drawing path to its STL destination.
func (c *convertCmd) outputPath(in string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	switch {
	case c.Output == "":
		return filepath.Join(filepath.Dir(in), stem+".stl"), nil
	case strings.HasSuffix(c.Output, ".stl"):
		return c.Output, nil
	default:
		if err := os.MkdirAll(c.Output, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return filepath.Join(c.Output, stem+".stl"), nil
	}
}

func reportWarnings(log *slog.Logger, in string, res *pipeline.Result) {
	for _, d := range res.Diagnostics.Dangling {
		log.Warn("dangling edge excluded", "input", in, "detail", d.String())
	}
	for _, h := range res.Diagnostics.Heuristics {
		log.Warn("heuristic feature", "input", in, "profile", h.ProfileSeq, "detail", h.Message)
	}
	for _, s := range res.Diagnostics.Skipped {
		log.Warn("feature skipped", "input", in, "detail", s.String())
	}
	if res.Diagnostics.DegenerateDropped > 0 {
		log.Warn("degenerate entities dropped", "input", in, "count", res.Diagnostics.DegenerateDropped)
	}
}

type inspectCmd struct {
	Path string `arg:"" name:"drawing" help:"Drawing file (YAML)." type:"existingfile"`
}

func (c *inspectCmd) Run(app *appEnv) error {
	doc, err := drawing.Load(c.Path)
	if err != nil {
		return err
	}
	parsed, err := parser.Parse(doc, app.cfg)
	if err != nil {
		return err
	}
	set, dangling, err := profile.Detect(parsed, app.cfg)
	if err != nil {
		return err
	}
	features, notes, err := feature.Detect(set, parsed.Annotations, app.cfg)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d edges, %d annotations, %d profiles\n",
		c.Path, len(parsed.Edges), len(parsed.Annotations), len(set.Profiles))
	for i := range set.Profiles {
		p := &set.Profiles[i]
		role := "inner"
		if p.Outer {
			role = "outer"
		}
		shape := "polyline"
		if p.IsCircular() {
			shape = "circle"
		}
		fmt.Printf("  profile %d: %s %s, area %.3f, %d edges\n", p.Seq, role, shape, p.Area, len(p.Edges))
	}
	for _, f := range features {
		fmt.Printf("  feature: %s\n", f)
	}
	for _, d := range dangling {
		fmt.Printf("  warning: %s\n", d.String())
	}
	for _, n := range notes {
		fmt.Printf("  note: profile %d: %s\n", n.ProfileSeq, n.Message)
	}
	return nil
}
