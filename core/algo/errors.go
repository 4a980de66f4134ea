// Package algo has the numeric building blocks of the classification pipeline.
package algo

import "github.com/rotisserie/eris"

var (
	// ErrDataInsufficient is returned when too few sufficient students exist to fit a model.
	ErrDataInsufficient = eris.New("not enough sufficient students to fit")

	// ErrNotFitted is returned when a model or normalizer is used before it is fitted.
	ErrNotFitted = eris.New("model used before fit")
)
