// Package schemagen generates Go sources, a plugin manifest and a flattened
// registry from layered schema documents. Most callers only need Generate;
// pkg/orchestrator exposes the full set of options.
package schemagen

import (
	"context"

	"github.com/goliatone/go-schemagen/pkg/compose"
	"github.com/goliatone/go-schemagen/pkg/orchestrator"
	"github.com/goliatone/go-schemagen/pkg/report"
	"github.com/goliatone/go-schemagen/pkg/schema"
)

// Request aliases orchestrator.Request for callers of the top-level package.
type Request = orchestrator.Request

// Report aliases report.Report.
type Report = report.Report

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Generate runs the whole pipeline for the schema file at schemaPath and
// writes everything into outputDir.
func Generate(ctx context.Context, schemaPath, outputDir string, options ...orchestrator.Option) (*Report, error) {
	return orchestrator.New(options...).Generate(ctx, Request{
		Source:    schema.SourceFromFile(schemaPath),
		OutputDir: outputDir,
	})
}

// OpenStage composes the layer at src with its sublayers, for callers that
// want to query a schema without generating anything.
func OpenStage(ctx context.Context, src schema.Source, options ...compose.Option) (schema.Stage, error) {
	stage, err := compose.Open(ctx, src, options...)
	if err != nil {
		return nil, err
	}
	return stage, nil
}
