// Package openapi exports a flattened schema registry as an OpenAPI 3
// components document. The kin-openapi based implementation lives under
// internal/openapi so consumers do not depend on it.
package openapi
