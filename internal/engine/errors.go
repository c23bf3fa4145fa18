package engine

import "errors"

var (
	ErrUnknownBuffer  = errors.New("unknown buffer")
	ErrUnknownStation = errors.New("unknown station")
	ErrInvalidEdge    = errors.New("invalid edge")
	ErrInvalidRange   = errors.New("invalid range")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrClosed         = errors.New("engine is shut down")
)
