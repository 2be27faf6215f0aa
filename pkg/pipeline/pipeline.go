// Package pipeline runs one drawing through the conversion stages:
// parse, profile detection, feature detection, model build, export.
// Each job is independent; the pipeline holds no mutable state between
// jobs, so callers may run many jobs concurrently over one kernel.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"draftsolid/pkg/builder"
	"draftsolid/pkg/config"
	"draftsolid/pkg/drawing"
	"draftsolid/pkg/export"
	"draftsolid/pkg/feature"
	"draftsolid/pkg/kernel"
	"draftsolid/pkg/parser"
	"draftsolid/pkg/profile"
)

// Status summarizes a finished job.
type Status int

const (
	StatusOK Status = iota
	StatusWarnings
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarnings:
		return "warnings"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage names the pipeline stage a diagnostic or failure belongs to.
type Stage string

const (
	StageParse   Stage = "parse"
	StageProfile Stage = "profile"
	StageFeature Stage = "feature"
	StageBuild   Stage = "build"
	StageExport  Stage = "export"
)

// Diagnostics collects the soft warnings of one job. Hard failures
// travel as the job error; everything here is advisory.
type Diagnostics struct {
	DegenerateDropped int
	Dangling          []profile.DanglingEdgeWarning
	Heuristics        []feature.HeuristicNote
	Skipped           []builder.SkippedFeature
}

// HasWarnings reports whether any advisory diagnostic was recorded.
func (d *Diagnostics) HasWarnings() bool {
	return d.DegenerateDropped > 0 || len(d.Dangling) > 0 || len(d.Heuristics) > 0 || len(d.Skipped) > 0
}

// Result is the outcome of one conversion job.
type Result struct {
	JobID       string
	Status      Status
	FailedStage Stage // set only when Status is StatusFailed
	Diagnostics Diagnostics
	Model       *builder.Result
	Err         error
}

// Convert runs one parsed drawing through the pipeline up to the built
// model. The context is checked between stages so a cancelled batch
// stops promptly. The returned Result is non-nil even on failure and
// carries the job ID, failing stage and diagnostics gathered so far.
func Convert(ctx context.Context, doc *drawing.Document, cfg config.Config, k kernel.Kernel, log *slog.Logger) (*Result, error) {
	res := &Result{JobID: uuid.NewString()}
	log = log.With("job", res.JobID)

	fail := func(stage Stage, err error) (*Result, error) {
		res.Status = StatusFailed
		res.FailedStage = stage
		res.Err = err
		log.Error("conversion failed", "stage", string(stage), "error", err)
		return res, fmt.Errorf("%s: %w", stage, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(StageParse, err)
	}
	parsed, err := parser.Parse(doc, cfg)
	if err != nil {
		return fail(StageParse, err)
	}
	res.Diagnostics.DegenerateDropped = parsed.DegenerateDropped
	log.Debug("parsed drawing",
		"edges", len(parsed.Edges),
		"annotations", len(parsed.Annotations),
		"degenerate_dropped", parsed.DegenerateDropped)

	if err := ctx.Err(); err != nil {
		return fail(StageProfile, err)
	}
	set, dangling, err := profile.Detect(parsed, cfg)
	res.Diagnostics.Dangling = dangling
	if err != nil {
		return fail(StageProfile, err)
	}
	log.Debug("detected profiles", "profiles", len(set.Profiles), "dangling", len(dangling))

	if err := ctx.Err(); err != nil {
		return fail(StageFeature, err)
	}
	features, notes, err := feature.Detect(set, parsed.Annotations, cfg)
	res.Diagnostics.Heuristics = notes
	if err != nil {
		return fail(StageFeature, err)
	}
	for _, f := range features {
		log.Debug("feature", "kind", f.Spec.Kind(), "profile", f.ProfileSeq, "provenance", f.Provenance.String())
	}

	if err := ctx.Err(); err != nil {
		return fail(StageBuild, err)
	}
	model, err := builder.Build(set, features, cfg, k)
	if err != nil {
		return fail(StageBuild, err)
	}
	res.Diagnostics.Skipped = model.Skipped
	res.Model = model
	log.Debug("built model",
		"applied", len(model.Applied),
		"skipped", len(model.Skipped),
		"triangles", model.Mesh.TriangleCount())

	res.Status = StatusOK
	if res.Diagnostics.HasWarnings() {
		res.Status = StatusWarnings
	}
	return res, nil
}

// ConvertFile loads a drawing from inPath, converts it, and exports
// the result to outPath as binary STL.
func ConvertFile(ctx context.Context, inPath, outPath string, cfg config.Config, k kernel.Kernel, log *slog.Logger) (*Result, error) {
	doc, err := drawing.Load(inPath)
	if err != nil {
		res := &Result{
			JobID:       uuid.NewString(),
			Status:      StatusFailed,
			FailedStage: StageParse,
			Err:         err,
		}
		return res, fmt.Errorf("%s: %w", StageParse, err)
	}

	res, err := Convert(ctx, doc, cfg, k, log)
	if err != nil {
		return res, err
	}

	res.Model.Mesh.Name = res.JobID
	if err := export.STL(outPath, res.Model.Mesh); err != nil {
		res.Status = StatusFailed
		res.FailedStage = StageExport
		res.Err = err
		return res, fmt.Errorf("%s: %w", StageExport, err)
	}
	log.Info("exported model", "job", res.JobID, "output", outPath, "status", res.Status.String())
	return res, nil
}
