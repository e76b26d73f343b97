// Package pipeline orchestrates one scan: L1 rule matching and L2 inference
// fan out concurrently, their outputs feed the pure decision stage, and the
// assembled ScanResult is handed back to the caller.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/raxe-ai/raxe-ce-sub006/internal/config"
	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
	"github.com/raxe-ai/raxe-ce-sub006/internal/telemetry"
)

// RuleScanner is the L1 collaborator: it matches the compiled rule corpus
// against the text and returns zero or more detections.
type RuleScanner interface {
	Scan(ctx context.Context, text string) ([]schema.Detection, error)
}

// HeadInferencer is the L2 collaborator: it returns exactly one HeadOutput
// per known head, or an error. Degraded reports whether a stub is standing
// in for the real model.
type HeadInferencer interface {
	Infer(ctx context.Context, text string) ([]schema.HeadOutput, error)
	Degraded() bool
}

// Pipeline wires the collaborators around the pure decision stage. It holds
// no per-scan state; one Pipeline serves concurrent scans.
type Pipeline struct {
	rules   RuleScanner
	heads   HeadInferencer
	presets *config.Store
	tel     *telemetry.Provider
	log     zerolog.Logger
}

// New builds a pipeline. heads may be nil for L1-only operation; rules may
// be nil when only the ML ensemble is wanted.
func New(rules RuleScanner, heads HeadInferencer, presets *config.Store, tel *telemetry.Provider, log zerolog.Logger) *Pipeline {
	if presets == nil {
		presets = config.DefaultStore()
	}
	if tel == nil {
		tel = telemetry.Disabled()
	}
	return &Pipeline{
		rules:   rules,
		heads:   heads,
		presets: presets,
		tel:     tel,
		log:     log,
	}
}

// Scan runs both layers on the text and returns the aggregated result. Any
// core-level failure fails closed: the caller gets an error, never an
// implicit SAFE verdict.
func (p *Pipeline) Scan(ctx context.Context, text, presetName string) (*schema.ScanResult, error) {
	preset, err := p.presets.Lookup(presetName)
	if err != nil {
		return nil, err
	}

	scanID := uuid.NewString()
	start := time.Now()

	var (
		detections []schema.Detection
		outputs    []schema.HeadOutput
	)
	g, gctx := errgroup.WithContext(ctx)
	if p.rules != nil {
		g.Go(func() error {
			var err error
			detections, err = p.rules.Scan(gctx, text)
			return err
		})
	}
	if p.heads != nil {
		g.Go(func() error {
			var err error
			outputs, err = p.heads.Infer(gctx, text)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		p.log.Error().Err(err).Str("scan_id", scanID).Msg("scan layer failed")
		return nil, err
	}
	if p.heads == nil && p.rules == nil {
		return nil, errors.New("pipeline has no detection layers configured")
	}
	if p.heads != nil && len(outputs) == 0 {
		// A configured inference engine produced nothing; treating that
		// as L1-only would mask an L2 failure as a benign default.
		err := fmt.Errorf("%w: inference engine returned no head outputs", schema.ErrMissingHeadVote)
		p.log.Error().Err(err).Str("scan_id", scanID).Msg("scan layer failed")
		return nil, err
	}

	res, err := Run(detections, outputs, preset)
	if err != nil {
		p.log.Error().Err(err).Str("scan_id", scanID).Msg("decision stage failed")
		return nil, err
	}

	res.ScanID = scanID
	res.DurationMS = float64(time.Since(start).Microseconds()) / 1000
	if p.heads != nil && p.heads.Degraded() {
		res.Degraded = true
	}

	p.tel.RecordScan(ctx, res)
	evt := p.log.Info()
	if res.HasThreats() {
		evt = p.log.Warn()
	}
	evt.
		Str("scan_id", scanID).
		Str("classification", string(res.Classification)).
		Str("action", string(res.Action)).
		Float64("risk_score", res.RiskScore).
		Int("detections", len(res.Detections)).
		Str("preset", preset.Name).
		Float64("duration_ms", res.DurationMS).
		Msg("scan complete")
	return res, nil
}
