package model

import (
	"context"

	"github.com/goliatone/go-schemagen/internal/model"
	"github.com/goliatone/go-schemagen/pkg/report"
	"github.com/goliatone/go-schemagen/pkg/schema"
)

// Builder converts the root classes of a composed schema into class models.
type Builder interface {
	Build(ctx context.Context, stage schema.Stage, rep *report.Report) (*Result, error)
}

// BuilderOption configures the builder behaviour.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	docLeader string
	className func(string) string
}

// WithDocLeader overrides the separator used to join documentation lines.
func WithDocLeader(leader string) BuilderOption {
	return func(opts *builderOptions) {
		opts.docLeader = leader
	}
}

// WithClassNamer overrides how a schema type name becomes a class name when
// customData.className is not authored.
func WithClassNamer(namer func(string) string) BuilderOption {
	return func(opts *builderOptions) {
		opts.className = namer
	}
}

// NewBuilder returns a Builder backed by the internal implementation.
func NewBuilder(options ...BuilderOption) Builder {
	cfg := builderOptions{}
	for _, opt := range options {
		opt(&cfg)
	}

	return model.New(model.Options{
		DocLeader: cfg.docLeader,
		ClassName: cfg.className,
	})
}

// CollectTokens builds the library token table and records the tokens each
// class references.
func CollectTokens(classes []*ClassModel, lib Library) (*TokenTable, error) {
	return model.CollectTokens(classes, lib)
}

// NewTokenTable returns an empty token table.
func NewTokenTable() *TokenTable {
	return model.NewTokenTable()
}

// LibraryFromLayer reads library metadata from the GLOBAL class of layer.
func LibraryFromLayer(layer *schema.Layer) (Library, error) {
	return model.LibraryFromLayer(layer)
}
