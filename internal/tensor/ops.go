package tensor

import (
	"fmt"

	"github.com/born-ml/graphdiff/internal/errs"
)

// binaryOp selects the element-wise kernel applied by elementwise.
type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
)

func (op binaryOp) String() string {
	switch op {
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opMul:
		return "mul"
	default:
		return "div"
	}
}

// Add performs element-wise addition with NumPy-style broadcasting.
func Add(a, b *RawTensor) (*RawTensor, error) {
	return elementwise(opAdd, a, b)
}

// Sub performs element-wise subtraction with NumPy-style broadcasting.
func Sub(a, b *RawTensor) (*RawTensor, error) {
	return elementwise(opSub, a, b)
}

// Mul performs element-wise multiplication with NumPy-style broadcasting.
func Mul(a, b *RawTensor) (*RawTensor, error) {
	return elementwise(opMul, a, b)
}

// Div performs element-wise division with NumPy-style broadcasting.
// Integer division by zero fails with ErrInvalidParameter.
func Div(a, b *RawTensor) (*RawTensor, error) {
	if !b.dtype.IsFloat() {
		for _, v := range b.Float64s() {
			if v == 0 {
				return nil, fmt.Errorf("div: integer division by zero: %w", errs.ErrInvalidParameter)
			}
		}
	}
	return elementwise(opDiv, a, b)
}

// elementwise dispatches a broadcasting binary kernel on the operands' dtype.
func elementwise(op binaryOp, a, b *RawTensor) (*RawTensor, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrUnset)
	}
	if a.dtype != b.dtype {
		return nil, fmt.Errorf("%s: %s vs %s: %w", op, a.dtype, b.dtype, errs.ErrTypeMismatch)
	}
	outShape, _, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &RawTensor{shape: outShape, dtype: a.dtype}
	switch ad := a.data.(type) {
	case []float32:
		result.data = broadcastBinary(op, ad, b.data.([]float32), a.shape, b.shape, outShape)
	case []float64:
		result.data = broadcastBinary(op, ad, b.data.([]float64), a.shape, b.shape, outShape)
	case []int32:
		result.data = broadcastBinary(op, ad, b.data.([]int32), a.shape, b.shape, outShape)
	case []int64:
		result.data = broadcastBinary(op, ad, b.data.([]int64), a.shape, b.shape, outShape)
	case []uint64:
		result.data = broadcastBinary(op, ad, b.data.([]uint64), a.shape, b.shape, outShape)
	}
	return result, nil
}

func applyBinary[T Numeric](op binaryOp, x, y T) T {
	switch op {
	case opAdd:
		return x + y
	case opSub:
		return x - y
	case opMul:
		return x * y
	default:
		return x / y
	}
}

// broadcastBinary applies op over out, reading a and b through broadcast strides.
func broadcastBinary[T Numeric](op binaryOp, a, b []T, aShape, bShape, out Shape) []T {
	result := make([]T, out.NumElements())

	// Fast path: identical shapes
	if aShape.Equal(bShape) {
		for i := range result {
			result[i] = applyBinary(op, a[i], b[i])
		}
		return result
	}

	outStrides := out.ComputeStrides()
	aStrides := broadcastStrides(aShape, out)
	bStrides := broadcastStrides(bShape, out)
	for i := range result {
		ai, bi, rem := 0, 0, i
		for d := range out {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			ai += coord * aStrides[d]
			bi += coord * bStrides[d]
		}
		result[i] = applyBinary(op, a[ai], b[bi])
	}
	return result
}

// gather materializes src (shaped srcShape) broadcast to out.
func gather[T Numeric](src []T, srcShape, out Shape) []T {
	result := make([]T, out.NumElements())
	outStrides := out.ComputeStrides()
	srcStrides := broadcastStrides(srcShape, out)
	for i := range result {
		si, rem := 0, i
		for d := range out {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			si += coord * srcStrides[d]
		}
		result[i] = src[si]
	}
	return result
}
