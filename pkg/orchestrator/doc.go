// Package orchestrator wires the schema pipeline: compose the layer stack,
// build class models, collect tokens, emit source files, merge the plugin
// manifest, flatten the registry and optionally export it as OpenAPI. Stages
// run once each, in that order, and every fatal check happens before the
// first write.
package orchestrator
