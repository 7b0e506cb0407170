package tensor

import (
	"fmt"
	"math"

	"github.com/born-ml/graphdiff/internal/errs"
)

// Exp computes e^x element-wise. Only float tensors are supported.
func Exp(x *RawTensor) (*RawTensor, error) {
	return unaryFloat("exp", x, math.Exp)
}

// Log computes the natural logarithm element-wise. Only float tensors are supported.
func Log(x *RawTensor) (*RawTensor, error) {
	return unaryFloat("log", x, math.Log)
}

// Sin computes sine element-wise. Only float tensors are supported.
func Sin(x *RawTensor) (*RawTensor, error) {
	return unaryFloat("sin", x, math.Sin)
}

// Cos computes cosine element-wise. Only float tensors are supported.
func Cos(x *RawTensor) (*RawTensor, error) {
	return unaryFloat("cos", x, math.Cos)
}

// Tanh computes hyperbolic tangent element-wise. Only float tensors are supported.
func Tanh(x *RawTensor) (*RawTensor, error) {
	return unaryFloat("tanh", x, math.Tanh)
}

// Neg negates every element. Unsigned tensors fail with ErrTypeMismatch.
func Neg(x *RawTensor) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("neg: %w", errs.ErrUnset)
	}
	result := &RawTensor{shape: x.shape.Clone(), dtype: x.dtype}
	switch d := x.data.(type) {
	case []float32:
		result.data = mapSlice(d, func(v float32) float32 { return -v })
	case []float64:
		result.data = mapSlice(d, func(v float64) float64 { return -v })
	case []int32:
		result.data = mapSlice(d, func(v int32) int32 { return -v })
	case []int64:
		result.data = mapSlice(d, func(v int64) int64 { return -v })
	default:
		return nil, fmt.Errorf("neg: unsupported dtype %s: %w", x.dtype, errs.ErrTypeMismatch)
	}
	return result, nil
}

// AddScalar adds s to every element. s is converted to the tensor's dtype.
func AddScalar(x *RawTensor, s float64) (*RawTensor, error) {
	return scalarOp(opAdd, x, s)
}

// MulScalar multiplies every element by s. s is converted to the tensor's dtype.
func MulScalar(x *RawTensor, s float64) (*RawTensor, error) {
	return scalarOp(opMul, x, s)
}

// Pow raises every element to the integer power n.
// Integer tensors reject negative exponents with ErrInvalidParameter.
func Pow(x *RawTensor, n int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("pow: %w", errs.ErrUnset)
	}
	if n < 0 && !x.dtype.IsFloat() {
		return nil, fmt.Errorf("pow: negative exponent %d for %s: %w", n, x.dtype, errs.ErrInvalidParameter)
	}
	result := &RawTensor{shape: x.shape.Clone(), dtype: x.dtype}
	switch d := x.data.(type) {
	case []float32:
		result.data = mapSlice(d, func(v float32) float32 { return float32(math.Pow(float64(v), float64(n))) })
	case []float64:
		result.data = mapSlice(d, func(v float64) float64 { return math.Pow(v, float64(n)) })
	case []int32:
		result.data = mapSlice(d, func(v int32) int32 { return powInt(v, n) })
	case []int64:
		result.data = mapSlice(d, func(v int64) int64 { return powInt(v, n) })
	case []uint64:
		result.data = mapSlice(d, func(v uint64) uint64 { return powInt(v, n) })
	}
	return result, nil
}

func unaryFloat(name string, x *RawTensor, f func(float64) float64) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("%s: %w", name, errs.ErrUnset)
	}
	result := &RawTensor{shape: x.shape.Clone(), dtype: x.dtype}
	switch d := x.data.(type) {
	case []float32:
		result.data = mapSlice(d, func(v float32) float32 { return float32(f(float64(v))) })
	case []float64:
		result.data = mapSlice(d, f)
	default:
		return nil, fmt.Errorf("%s: unsupported dtype %s (only float32/float64 supported): %w", name, x.dtype, errs.ErrTypeMismatch)
	}
	return result, nil
}

func scalarOp(op binaryOp, x *RawTensor, s float64) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("%s scalar: %w", op, errs.ErrUnset)
	}
	result := &RawTensor{shape: x.shape.Clone(), dtype: x.dtype}
	switch d := x.data.(type) {
	case []float32:
		result.data = mapScalar(op, d, s)
	case []float64:
		result.data = mapScalar(op, d, s)
	case []int32:
		result.data = mapScalar(op, d, s)
	case []int64:
		result.data = mapScalar(op, d, s)
	case []uint64:
		result.data = mapScalar(op, d, s)
	}
	return result, nil
}

func mapScalar[T Numeric](op binaryOp, d []T, s float64) []T {
	scalar := T(s)
	return mapSlice(d, func(v T) T { return applyBinary(op, v, scalar) })
}

func mapSlice[T Numeric](d []T, f func(T) T) []T {
	out := make([]T, len(d))
	for i, v := range d {
		out[i] = f(v)
	}
	return out
}

func powInt[T Numeric](v T, n int) T {
	result := T(1)
	for ; n > 0; n-- {
		result *= v
	}
	return result
}
