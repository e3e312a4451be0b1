// Package template defines the renderer-agnostic template interfaces the code
// emitter depends on. The gotemplate subpackage backs them with pongo2.
package template
