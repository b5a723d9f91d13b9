// Package compile wires the pipeline stages together in fixed order:
// scan, parse, discover symbols, validate references, check semantics,
// resolve. Every stage follows the "never both an artifact and errors"
// contract (spec.md §7); this package is where that contract is
// enforced end-to-end, and where the job gets a stable identity for
// logging and caching.
package compile

import (
	"time"

	"github.com/google/uuid"
	digest "github.com/opencontainers/go-digest"
	"go.uber.org/zap"

	"esplang.dev/compiler/internal/config"
	"esplang.dev/compiler/internal/errors"
	"esplang.dev/compiler/internal/parser"
	"esplang.dev/compiler/internal/resolve"
	"esplang.dev/compiler/internal/semantic"
	"esplang.dev/compiler/internal/symbols"
	"esplang.dev/compiler/internal/validate"
)

// Result is the outcome of a single compile job: either a resolved Plan
// or a non-empty diagnostic list, never both.
type Result struct {
	JobID      string
	Digest     digest.Digest
	Diagnostics errors.List
	Plan       *resolve.Plan
	Duration   time.Duration
}

// Compile runs the full pipeline over src (the contents of filename)
// under prefs, logging each stage's outcome to log.
func Compile(filename string, src []byte, prefs config.Preferences, log *zap.Logger) Result {
	if log == nil {
		log = zap.NewNop()
	}
	jobID := uuid.NewString()
	dg := digest.FromBytes(src)
	log = log.With(zap.String("job_id", jobID), zap.String("digest", dg.String()), zap.String("file", filename))

	start := time.Now()
	res := Result{JobID: jobID, Digest: dg}

	file, diags := parser.Parse(filename, src)
	if diags.HasErrors() || file == nil {
		log.Info("parse failed", zap.Int("diagnostics", len(diags)))
		res.Diagnostics = diags
		res.Duration = time.Since(start)
		return res
	}
	log.Debug("parse complete")

	tbl, diags := symbols.Discover(file)
	if diags.HasErrors() {
		log.Info("symbol discovery failed", zap.Int("diagnostics", len(diags)))
		res.Diagnostics = diags
		res.Duration = time.Since(start)
		return res
	}
	log.Debug("symbol discovery complete", zap.Int("relationships", len(tbl.Relationships)))

	vopts := validate.Options{
		EnableCycleDetection: prefs.EnableCycleDetection,
		ContinueOnErrors:     prefs.ContinueOnErrors,
		ContinueAfterCycles:  prefs.ContinueAfterCycles,
	}
	if diags := validate.Validate(tbl, vopts); diags.HasErrors() {
		log.Info("reference validation failed", zap.Int("diagnostics", len(diags)))
		res.Diagnostics = diags
		res.Duration = time.Since(start)
		return res
	}
	log.Debug("reference validation complete")

	if diags := semantic.Analyze(file, tbl); diags.HasErrors() {
		log.Info("semantic analysis failed", zap.Int("diagnostics", len(diags)))
		res.Diagnostics = diags
		res.Duration = time.Since(start)
		return res
	}
	log.Debug("semantic analysis complete")

	plan, diags := resolve.Resolve(file, tbl)
	if diags.HasErrors() {
		log.Info("resolution failed", zap.Int("diagnostics", len(diags)))
		res.Diagnostics = diags
		res.Duration = time.Since(start)
		return res
	}
	log.Info("compile succeeded", zap.Int("steps", len(plan.Order)))

	res.Plan = plan
	res.Duration = time.Since(start)
	return res
}
