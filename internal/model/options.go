package model

import "github.com/goliatone/go-schemagen/internal/naming"

// Options configures the behaviour of the Builder. Options are constructed by
// the public adapter in pkg/model and passed into New.
type Options struct {
	// DocLeader joins the lines of sanitized documentation.
	DocLeader string
	// ClassName derives a class display name from its schema type name when
	// customData.className is absent.
	ClassName func(string) string
}

func defaultOptions() Options {
	return Options{
		DocLeader: "\n",
		ClassName: naming.ProperCase,
	}
}
