package model

import internalmodel "github.com/goliatone/go-schemagen/internal/model"

// Re-exported generation model types.
type (
	ClassModel    = internalmodel.ClassModel
	PropertyModel = internalmodel.PropertyModel
	PropertySet   = internalmodel.PropertySet
	Detail        = internalmodel.Detail
	Library       = internalmodel.Library
	LibraryToken  = internalmodel.LibraryToken
	Result        = internalmodel.Result
	TokenEntry    = internalmodel.TokenEntry
	TokenTable    = internalmodel.TokenTable
)

// Fatal error types.
type (
	SchemaError        = internalmodel.SchemaError
	TokenConflictError = internalmodel.TokenConflictError
	InvalidTokenError  = internalmodel.InvalidTokenError
)

const (
	SchemaBaseGeneratedName = internalmodel.SchemaBaseGeneratedName
	SchemaBaseFileName      = internalmodel.SchemaBaseFileName
	APIGetGenerated         = internalmodel.APIGetGenerated
	APIGetCustom            = internalmodel.APIGetCustom
)
