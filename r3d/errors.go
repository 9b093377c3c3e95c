package r3d

import "github.com/pkg/errors"

var (
	ErrAlreadyAttached = errors.New("node already has parent")
	ErrCycle           = errors.New("node is an ancestor of the parent")
	ErrIndexOutOfRange = errors.New("index out of bound")
	ErrVertexLayout    = errors.New("invalid vertex layout")
	ErrEmptyViewport   = errors.New("empty viewport")
)
