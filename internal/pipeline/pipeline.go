// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the enrichment stages and enforces the
// contracts between them: no stage may drop or invent a dataset, and
// no stage may lower a confidence tag another stage raised. Each
// stage's output snapshot is persisted before the next stage runs.
// See docs/ARCHITECTURE § Pipeline.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/mxwei/hlameta/internal/classify"
	"github.com/mxwei/hlameta/internal/infer"
	"github.com/mxwei/hlameta/internal/normalize"
	"github.com/mxwei/hlameta/internal/quality"
	"github.com/mxwei/hlameta/internal/reconcile"
	"github.com/mxwei/hlameta/internal/store"
	"github.com/mxwei/hlameta/pkg/types"
)

// Stage names in execution order, as stored in the run history.
const (
	StageNormalize = "normalize"
	StageClassify  = "classify"
	StageInfer     = "infer"
	StageReconcile = "reconcile"
	StageScore     = "score"
)

var stageSeq = map[string]int{
	StageNormalize: 1,
	StageClassify:  2,
	StageInfer:     3,
	StageReconcile: 4,
	StageScore:     5,
}

// Pipeline wires the five stages together. The store is optional; a
// nil store runs the pipeline without history.
type Pipeline struct {
	normalizer *normalize.Normalizer
	classifier *classify.Engine
	inferrer   *infer.Engine
	reconciler *reconcile.Engine
	scorer     *quality.Scorer

	store *store.Store
	out   io.Writer
}

// Result carries what a full run produced beyond the final snapshot.
type Result struct {
	RunID     string
	Inference infer.Stats
	Reconcile reconcile.Report
}

// New assembles a pipeline from a validated rule set.
func New(cfg types.RulesConfig, st *store.Store, out io.Writer) (*Pipeline, error) {
	classifier, err := classify.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("building classifier: %w", err)
	}
	inferrer, err := infer.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("building inference engine: %w", err)
	}
	reconciler, err := reconcile.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("building reconciler: %w", err)
	}
	scorer, err := quality.New(cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("building scorer: %w", err)
	}
	return &Pipeline{
		normalizer: normalize.New(cfg.Normalize),
		classifier: classifier,
		inferrer:   inferrer,
		reconciler: reconciler,
		scorer:     scorer,
		store:      st,
		out:        out,
	}, nil
}

// Run executes all five stages from raw payloads. Secondary records
// may be nil, in which case reconciliation is skipped.
func (p *Pipeline) Run(ctx context.Context, inputs []normalize.Raw, secondary []reconcile.SecondaryRecord) (types.Snapshot, Result, error) {
	var result Result
	if err := p.beginRun(ctx, &result); err != nil {
		return types.Snapshot{}, result, err
	}

	snap := p.normalizer.Batch(inputs)
	fmt.Fprintf(p.out, "normalize: %d records from %d payloads\n", len(snap.Records), len(inputs))
	if err := p.persist(ctx, result.RunID, StageNormalize, snap); err != nil {
		return types.Snapshot{}, result, err
	}

	snap, err := p.enrich(ctx, snap, secondary, &result)
	return snap, result, err
}

// Enrich executes the post-normalization stages on an existing
// snapshot, for resuming from a stored or imported state.
func (p *Pipeline) Enrich(ctx context.Context, snap types.Snapshot, secondary []reconcile.SecondaryRecord) (types.Snapshot, Result, error) {
	var result Result
	if err := p.beginRun(ctx, &result); err != nil {
		return types.Snapshot{}, result, err
	}
	if err := p.persist(ctx, result.RunID, StageNormalize, snap); err != nil {
		return types.Snapshot{}, result, err
	}
	out, err := p.enrich(ctx, snap, secondary, &result)
	return out, result, err
}

func (p *Pipeline) enrich(ctx context.Context, snap types.Snapshot, secondary []reconcile.SecondaryRecord, result *Result) (types.Snapshot, error) {
	step := func(stage string, f func(types.Snapshot) types.Snapshot) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := f(snap)
		if err := VerifyTransition(snap, next); err != nil {
			return fmt.Errorf("stage %s broke its contract: %w", stage, err)
		}
		if err := p.persist(ctx, result.RunID, stage, next); err != nil {
			return err
		}
		snap = next
		return nil
	}

	if err := step(StageClassify, p.classifier.Run); err != nil {
		return types.Snapshot{}, err
	}
	fmt.Fprintf(p.out, "classify: done\n")

	if err := step(StageInfer, func(s types.Snapshot) types.Snapshot {
		out, stats := p.inferrer.Run(s)
		result.Inference = stats
		return out
	}); err != nil {
		return types.Snapshot{}, err
	}
	fmt.Fprintf(p.out, "infer: %d examined, %d resolved\n",
		result.Inference.Examined, result.Inference.Resolved())

	if len(secondary) > 0 {
		if err := step(StageReconcile, func(s types.Snapshot) types.Snapshot {
			out, report := p.reconciler.Run(s, secondary)
			result.Reconcile = report
			return out
		}); err != nil {
			return types.Snapshot{}, err
		}
		fmt.Fprintf(p.out, "reconcile: %s\n", result.Reconcile.Summary())
	}

	if err := step(StageScore, p.scorer.Run); err != nil {
		return types.Snapshot{}, err
	}
	fmt.Fprintf(p.out, "score: done\n")

	return snap, nil
}

func (p *Pipeline) beginRun(ctx context.Context, result *Result) error {
	if p.store == nil {
		return nil
	}
	id, err := p.store.BeginRun(ctx)
	if err != nil {
		return fmt.Errorf("starting run: %w", err)
	}
	result.RunID = id
	return nil
}

func (p *Pipeline) persist(ctx context.Context, runID, stage string, snap types.Snapshot) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.SaveStage(ctx, runID, stage, stageSeq[stage], snap); err != nil {
		return fmt.Errorf("persisting %s snapshot: %w", stage, err)
	}
	return nil
}

// VerifyTransition checks the two contracts every stage must honor:
// the identifier set is unchanged, and no derived field moved down the
// confidence order or changed value while confirmed.
func VerifyTransition(before, after types.Snapshot) error {
	if !before.SameIDs(after) {
		return fmt.Errorf("identifier set changed: %d records before, %d after",
			len(before.Records), len(after.Records))
	}
	for i := range before.Records {
		prev := &before.Records[i]
		next := after.Find(prev.ID)
		for _, f := range types.DerivedFieldOrder {
			pv, nv := prev.Derived(f), next.Derived(f)
			if nv.Confidence.Rank() < pv.Confidence.Rank() {
				return fmt.Errorf("record %s field %s downgraded from %s to %s",
					prev.ID, f, pv.Confidence, nv.Confidence)
			}
			if pv.Confidence == types.ConfidenceConfirmed && nv.Value != pv.Value {
				return fmt.Errorf("record %s field %s: confirmed value %q replaced by %q",
					prev.ID, f, pv.Value, nv.Value)
			}
		}
	}
	return nil
}
