package fusion

import "github.com/pkg/errors"

var (
	// ErrDecomposition is returned when a covariance has no Cholesky factor.
	ErrDecomposition = errors.New("covariance is not positive definite")

	// ErrSingularInnovation is returned when the innovation covariance S
	// cannot be inverted.
	ErrSingularInnovation = errors.New("innovation covariance is singular")

	// ErrDegenerateRange is returned when a radar projection is attempted for
	// a sigma point at the sensor origin.
	ErrDegenerateRange = errors.New("radar range is degenerate")

	// ErrNonFinite is returned when a cycle produces NaN or Inf.
	ErrNonFinite = errors.New("non-finite value in estimate")

	ErrOutOfOrder     = errors.New("measurement timestamp precedes previous measurement")
	ErrBadMeasurement = errors.New("malformed measurement")
	ErrUnknownSensor  = errors.New("unknown sensor kind")
)
