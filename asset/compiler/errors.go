package compiler

import "errors"

var (
	ErrMissingPositionAttribute      = errors.New("bindless mesh: missing or invalid position attribute")
	ErrMissingNormalAttribute        = errors.New("bindless mesh: missing or invalid normal attribute")
	ErrMissingUVAttribute            = errors.New("bindless mesh: missing or invalid uv attribute")
	ErrIncompatiblePrimitiveTopology = errors.New("bindless mesh: incompatible primitive topology")
	ErrIndexOutOfRange               = errors.New("bindless mesh: vertex index out of range")
)
