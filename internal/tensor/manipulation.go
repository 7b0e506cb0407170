package tensor

import (
	"fmt"

	"github.com/born-ml/graphdiff/internal/errs"
)

// Reshape returns a copy of x with a new shape holding the same number of elements.
func Reshape(x *RawTensor, shape Shape) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("reshape: %w", errs.ErrUnset)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	if shape.NumElements() != x.NumElements() {
		return nil, fmt.Errorf("reshape: %v (%d elements) to %v (%d elements): %w",
			x.shape, x.NumElements(), shape, shape.NumElements(), errs.ErrSizeMismatch)
	}
	result := x.Clone()
	result.shape = shape.Clone()
	return result, nil
}

// Transpose permutes the axes of x. With no axes the order is reversed.
func Transpose(x *RawTensor, axes ...int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("transpose: %w", errs.ErrUnset)
	}
	perm, err := Permutation(len(x.shape), axes)
	if err != nil {
		return nil, fmt.Errorf("transpose: %w", err)
	}

	outShape := make(Shape, len(perm))
	for i, p := range perm {
		outShape[i] = x.shape[p]
	}
	result := &RawTensor{shape: outShape, dtype: x.dtype}
	switch d := x.data.(type) {
	case []float32:
		result.data = permute(d, x.shape, outShape, perm)
	case []float64:
		result.data = permute(d, x.shape, outShape, perm)
	case []int32:
		result.data = permute(d, x.shape, outShape, perm)
	case []int64:
		result.data = permute(d, x.shape, outShape, perm)
	case []uint64:
		result.data = permute(d, x.shape, outShape, perm)
	}
	return result, nil
}

// Permutation validates axes as a permutation of rank dimensions.
// Empty axes produce the reversed order.
func Permutation(rank int, axes []int) ([]int, error) {
	if len(axes) == 0 {
		perm := make([]int, rank)
		for i := range perm {
			perm[i] = rank - 1 - i
		}
		return perm, nil
	}
	if len(axes) != rank {
		return nil, fmt.Errorf("%d axes for rank %d: %w", len(axes), rank, errs.ErrInvalidParameter)
	}
	perm := make([]int, rank)
	seen := make([]bool, rank)
	for i, a := range axes {
		axis, err := normalizeAxis(a, rank)
		if err != nil {
			return nil, err
		}
		if seen[axis] {
			return nil, fmt.Errorf("axis %d repeated in %v: %w", axis, axes, errs.ErrInvalidParameter)
		}
		seen[axis] = true
		perm[i] = axis
	}
	return perm, nil
}

// InversePermutation returns the permutation that undoes perm.
func InversePermutation(perm []int) []int {
	inv := make([]int, len(perm))
	for i, p := range perm {
		inv[p] = i
	}
	return inv
}

func permute[T Numeric](src []T, inShape, outShape Shape, perm []int) []T {
	result := make([]T, len(src))
	inStrides := inShape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	for i := range result {
		si, rem := 0, i
		for d := range outShape {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			si += coord * inStrides[perm[d]]
		}
		result[i] = src[si]
	}
	return result
}

// BroadcastTo expands x to shape following broadcasting rules.
func BroadcastTo(x *RawTensor, shape Shape) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("broadcast: %w", errs.ErrUnset)
	}
	out, _, err := BroadcastShapes(x.shape, shape)
	if err != nil || !out.Equal(shape) {
		return nil, fmt.Errorf("broadcast: %v to %v: %w", x.shape, shape, errs.ErrInvalidParameter)
	}

	result := &RawTensor{shape: shape.Clone(), dtype: x.dtype}
	switch d := x.data.(type) {
	case []float32:
		result.data = gather(d, x.shape, shape)
	case []float64:
		result.data = gather(d, x.shape, shape)
	case []int32:
		result.data = gather(d, x.shape, shape)
	case []int64:
		result.data = gather(d, x.shape, shape)
	case []uint64:
		result.data = gather(d, x.shape, shape)
	}
	return result, nil
}

// SumTo reduces x to shape by summing the broadcast dimensions.
// It is the adjoint of BroadcastTo: shape must broadcast to x's shape.
func SumTo(x *RawTensor, shape Shape) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("sum to: %w", errs.ErrUnset)
	}
	out, _, err := BroadcastShapes(shape, x.shape)
	if err != nil || !out.Equal(x.shape) {
		return nil, fmt.Errorf("sum to: %v to %v: %w", x.shape, shape, errs.ErrInvalidParameter)
	}
	if x.shape.Equal(shape) {
		return x.Clone(), nil
	}

	lead := len(x.shape) - len(shape)
	axes := make([]int, 0, len(x.shape))
	for i := 0; i < lead; i++ {
		axes = append(axes, i)
	}
	for i, dim := range shape {
		if dim == 1 && x.shape[lead+i] != 1 {
			axes = append(axes, lead+i)
		}
	}
	summed, err := Sum(x, axes, true)
	if err != nil {
		return nil, fmt.Errorf("sum to: %w", err)
	}
	return Reshape(summed, shape)
}

// Sum reduces x along axes. With no axes every element is summed.
// keepDims keeps reduced dimensions with size 1.
func Sum(x *RawTensor, axes []int, keepDims bool) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("sum: %w", errs.ErrUnset)
	}
	rank := len(x.shape)
	reduce := make([]bool, rank)
	if len(axes) == 0 {
		for i := range reduce {
			reduce[i] = true
		}
	}
	for _, a := range axes {
		axis, err := normalizeAxis(a, rank)
		if err != nil {
			return nil, fmt.Errorf("sum: %w", err)
		}
		reduce[axis] = true
	}

	kept := make(Shape, rank)
	var squeezed Shape
	for i, dim := range x.shape {
		if reduce[i] {
			kept[i] = 1
			continue
		}
		kept[i] = dim
		squeezed = append(squeezed, dim)
	}

	result := &RawTensor{shape: kept, dtype: x.dtype}
	switch d := x.data.(type) {
	case []float32:
		result.data = sumKeep(d, x.shape, kept)
	case []float64:
		result.data = sumKeep(d, x.shape, kept)
	case []int32:
		result.data = sumKeep(d, x.shape, kept)
	case []int64:
		result.data = sumKeep(d, x.shape, kept)
	case []uint64:
		result.data = sumKeep(d, x.shape, kept)
	}
	if !keepDims {
		result.shape = squeezed
		if result.shape == nil {
			result.shape = Shape{}
		}
	}
	return result, nil
}

// KeepDimsShape returns the shape Sum produces for x's shape with keepDims set.
func KeepDimsShape(shape Shape, axes []int) (Shape, error) {
	kept := shape.Clone()
	if len(axes) == 0 {
		for i := range kept {
			kept[i] = 1
		}
		return kept, nil
	}
	for _, a := range axes {
		axis, err := normalizeAxis(a, len(shape))
		if err != nil {
			return nil, err
		}
		kept[axis] = 1
	}
	return kept, nil
}

// sumKeep sums src (shaped in) into a tensor shaped kept, where every kept
// dimension is either equal to in's or 1.
func sumKeep[T Numeric](src []T, in, kept Shape) []T {
	result := make([]T, kept.NumElements())
	inStrides := in.ComputeStrides()
	keptStrides := broadcastStrides(kept, in)
	for i, v := range src {
		ki, rem := 0, i
		for d := range in {
			coord := rem / inStrides[d]
			rem %= inStrides[d]
			ki += coord * keptStrides[d]
		}
		result[ki] += v
	}
	return result
}

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N)
func MatMul(a, b *RawTensor) (*RawTensor, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("matmul: %w", errs.ErrUnset)
	}
	if a.dtype != b.dtype {
		return nil, fmt.Errorf("matmul: %s vs %s: %w", a.dtype, b.dtype, errs.ErrTypeMismatch)
	}
	if len(a.shape) != 2 || len(b.shape) != 2 {
		return nil, fmt.Errorf("matmul: only 2D tensors supported, got %dD and %dD: %w",
			len(a.shape), len(b.shape), errs.ErrInvalidParameter)
	}

	m, k := a.shape[0], a.shape[1]
	kAlt, n := b.shape[0], b.shape[1]
	if k != kAlt {
		return nil, fmt.Errorf("matmul: shape mismatch [%d,%d] @ [%d,%d]: %w", m, k, kAlt, n, errs.ErrSizeMismatch)
	}

	result := &RawTensor{shape: Shape{m, n}, dtype: a.dtype}
	switch ad := a.data.(type) {
	case []float32:
		result.data = matmul(ad, b.data.([]float32), m, k, n)
	case []float64:
		result.data = matmul(ad, b.data.([]float64), m, k, n)
	case []int32:
		result.data = matmul(ad, b.data.([]int32), m, k, n)
	case []int64:
		result.data = matmul(ad, b.data.([]int64), m, k, n)
	case []uint64:
		result.data = matmul(ad, b.data.([]uint64), m, k, n)
	}
	return result, nil
}

// matmul computes C[i,j] = sum_k A[i,k] * B[k,j].
func matmul[T Numeric](a, b []T, m, k, n int) []T {
	c := make([]T, m*n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum T
			for kIdx := 0; kIdx < k; kIdx++ {
				sum += a[i*k+kIdx] * b[kIdx*n+j]
			}
			c[i*n+j] = sum
		}
	}
	return c
}

// Cast converts x to dtype.
func Cast(x *RawTensor, dtype DataType) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("cast: %w", errs.ErrUnset)
	}
	result := &RawTensor{shape: x.shape.Clone(), dtype: dtype}
	switch dtype {
	case Float32:
		result.data = convert[float32](x.data)
	case Float64:
		result.data = convert[float64](x.data)
	case Int32:
		result.data = convert[int32](x.data)
	case Int64:
		result.data = convert[int64](x.data)
	case Usize:
		result.data = convert[uint64](x.data)
	default:
		return nil, fmt.Errorf("cast: data type %d: %w", dtype, errs.ErrTypeMismatch)
	}
	return result, nil
}

// convert copies a backing slice of any supported type into a []D.
func convert[D Numeric](src any) []D {
	switch s := src.(type) {
	case []float32:
		return convertSlice[float32, D](s)
	case []float64:
		return convertSlice[float64, D](s)
	case []int32:
		return convertSlice[int32, D](s)
	case []int64:
		return convertSlice[int64, D](s)
	case []uint64:
		return convertSlice[uint64, D](s)
	}
	return nil
}

func convertSlice[S, D Numeric](src []S) []D {
	out := make([]D, len(src))
	for i, v := range src {
		out[i] = D(v)
	}
	return out
}

