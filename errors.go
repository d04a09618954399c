package canl3

import "github.com/KimNorgaard/go-canl3/errors"

// The error types returned by this package. Test for a category with
// errors.Is against a Kind from the errors package, e.g.
//
//	errors.Is(err, canl3errors.CircularReference)
type (
	ParseError  = errors.ParseError
	EncodeError = errors.EncodeError
	QueryError  = errors.QueryError
)
