package math3d

import "github.com/pkg/errors"

var (
	ErrZeroLength = errors.New("zero length")
	ErrSingular   = errors.New("singular basis")
	ErrZeroW      = errors.New("zero homogeneous w")
)

// below this magnitude a determinant or w component is treated as zero
const epsilon = 1e-12
