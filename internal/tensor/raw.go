package tensor

import (
	"fmt"

	"github.com/born-ml/graphdiff/internal/errs"
)

// RawTensor is a dynamically typed n-dimensional array.
// The backing slice is one of []float32, []float64, []int32, []int64 or
// []uint64, matching dtype, laid out row-major.
type RawTensor struct {
	shape Shape
	dtype DataType
	data  any
}

// NewRaw creates a new zero-filled RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	data, err := newData(dtype, shape.NumElements())
	if err != nil {
		return nil, err
	}
	return &RawTensor{shape: shape.Clone(), dtype: dtype, data: data}, nil
}

// FromSlice creates a RawTensor holding a copy of data with the given shape.
func FromSlice[T Numeric](data []T, shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("tensor: %d elements for shape %v: %w", len(data), shape, errs.ErrSizeMismatch)
	}
	buf := make([]T, len(data))
	copy(buf, data)
	return &RawTensor{shape: shape.Clone(), dtype: dataTypeOf[T](), data: buf}, nil
}

// Scalar creates a rank-0 tensor holding v.
func Scalar[T Numeric](v T) *RawTensor {
	return &RawTensor{shape: Shape{}, dtype: dataTypeOf[T](), data: []T{v}}
}

// Full creates a tensor of the given shape and type filled with v.
func Full(shape Shape, dtype DataType, v float64) (*RawTensor, error) {
	r, err := NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	switch d := r.data.(type) {
	case []float32:
		fill(d, v)
	case []float64:
		fill(d, v)
	case []int32:
		fill(d, v)
	case []int64:
		fill(d, v)
	case []uint64:
		fill(d, v)
	}
	return r, nil
}

// FullLike creates a tensor with the shape and type of r filled with v.
func FullLike(r *RawTensor, v float64) *RawTensor {
	out, err := Full(r.shape, r.dtype, v)
	if err != nil {
		// r already passed the same validation when it was built.
		panic(fmt.Sprintf("tensor: full-like: %v", err))
	}
	return out
}

// OnesLike creates a tensor of ones with the shape and type of r.
func OnesLike(r *RawTensor) *RawTensor {
	return FullLike(r, 1)
}

// ZerosLike creates a tensor of zeros with the shape and type of r.
func ZerosLike(r *RawTensor) *RawTensor {
	return FullLike(r, 0)
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// SameLayout reports whether r and other share shape and data type.
func (r *RawTensor) SameLayout(other *RawTensor) bool {
	return other != nil && r.dtype == other.dtype && r.shape.Equal(other.shape)
}

// Clone returns a deep copy of the tensor.
func (r *RawTensor) Clone() *RawTensor {
	out := &RawTensor{shape: r.shape.Clone(), dtype: r.dtype}
	switch d := r.data.(type) {
	case []float32:
		out.data = append([]float32(nil), d...)
	case []float64:
		out.data = append([]float64(nil), d...)
	case []int32:
		out.data = append([]int32(nil), d...)
	case []int64:
		out.data = append([]int64(nil), d...)
	case []uint64:
		out.data = append([]uint64(nil), d...)
	}
	return out
}

// Equal reports whether both tensors have the same layout and elements.
func (r *RawTensor) Equal(other *RawTensor) bool {
	if !r.SameLayout(other) {
		return false
	}
	switch d := r.data.(type) {
	case []float32:
		return equalSlices(d, other.data.([]float32))
	case []float64:
		return equalSlices(d, other.data.([]float64))
	case []int32:
		return equalSlices(d, other.data.([]int32))
	case []int64:
		return equalSlices(d, other.data.([]int64))
	case []uint64:
		return equalSlices(d, other.data.([]uint64))
	}
	return false
}

// Data returns the backing slice of r as []T.
// It fails with ErrTypeMismatch when T does not match the tensor's dtype.
func Data[T Numeric](r *RawTensor) ([]T, error) {
	d, ok := r.data.([]T)
	if !ok {
		var dummy T
		return nil, fmt.Errorf("tensor: dtype is %s, not %T: %w", r.dtype, dummy, errs.ErrTypeMismatch)
	}
	return d, nil
}

// Float64s returns the elements converted to float64.
func (r *RawTensor) Float64s() []float64 {
	return convert[float64](r.data)
}

func fill[T Numeric](d []T, v float64) {
	val := T(v)
	for i := range d {
		d[i] = val
	}
}

func equalSlices[T Numeric](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
