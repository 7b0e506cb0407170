// Package tensor provides the n-dimensional numeric value carried by graph values.
//
// A RawTensor is a shape plus a flat row-major slice of one of a small closed
// set of element types. Every operation allocates a fresh result and reports
// failures with the sentinels from internal/errs.
package tensor

import (
	"fmt"
	"strings"

	"github.com/born-ml/graphdiff/internal/errs"
)

// Numeric is the constraint satisfied by every supported element type.
type Numeric interface {
	float32 | float64 | int32 | int64 | uint64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Usize // unsigned size type, stored as uint64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64, Usize:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether the type is a floating-point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Usize:
		return "usize"
	default:
		return "unknown"
	}
}

// ParseDataType converts a name produced by String back into a DataType.
func ParseDataType(name string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "float32", "f32":
		return Float32, nil
	case "float64", "f64", "":
		return Float64, nil
	case "int32", "i32":
		return Int32, nil
	case "int64", "i64":
		return Int64, nil
	case "usize", "uint64", "u64":
		return Usize, nil
	default:
		return 0, fmt.Errorf("tensor: data type %q: %w", name, errs.ErrTypeMismatch)
	}
}

// dataTypeOf infers the DataType of T.
func dataTypeOf[T Numeric]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	default:
		return Usize
	}
}

// newData allocates a zeroed backing slice for dtype.
func newData(dtype DataType, n int) (any, error) {
	switch dtype {
	case Float32:
		return make([]float32, n), nil
	case Float64:
		return make([]float64, n), nil
	case Int32:
		return make([]int32, n), nil
	case Int64:
		return make([]int64, n), nil
	case Usize:
		return make([]uint64, n), nil
	default:
		return nil, fmt.Errorf("tensor: data type %d: %w", dtype, errs.ErrTypeMismatch)
	}
}
