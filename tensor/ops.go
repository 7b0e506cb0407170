// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Add returns a + b with broadcasting.
func Add(a, b *RawTensor) (*RawTensor, error) { return tensor.Add(a, b) }

// Sub returns a - b with broadcasting.
func Sub(a, b *RawTensor) (*RawTensor, error) { return tensor.Sub(a, b) }

// Mul returns a * b with broadcasting.
func Mul(a, b *RawTensor) (*RawTensor, error) { return tensor.Mul(a, b) }

// Div returns a / b with broadcasting.
func Div(a, b *RawTensor) (*RawTensor, error) { return tensor.Div(a, b) }

// MatMul multiplies two matrices: (M, K) @ (K, N) -> (M, N).
func MatMul(a, b *RawTensor) (*RawTensor, error) { return tensor.MatMul(a, b) }

// Transpose permutes the axes of x; with no axes the order is reversed.
func Transpose(x *RawTensor, axes ...int) (*RawTensor, error) { return tensor.Transpose(x, axes...) }

// Reshape returns x with a new shape holding the same number of elements.
func Reshape(x *RawTensor, shape Shape) (*RawTensor, error) { return tensor.Reshape(x, shape) }

// BroadcastTo expands x to shape.
func BroadcastTo(x *RawTensor, shape Shape) (*RawTensor, error) { return tensor.BroadcastTo(x, shape) }

// SumTo sums x down to shape, the adjoint of BroadcastTo.
func SumTo(x *RawTensor, shape Shape) (*RawTensor, error) { return tensor.SumTo(x, shape) }

// Sum reduces x along axes; with no axes every element is summed.
func Sum(x *RawTensor, axes []int, keepDims bool) (*RawTensor, error) {
	return tensor.Sum(x, axes, keepDims)
}

// Cast converts x to dtype.
func Cast(x *RawTensor, dtype DataType) (*RawTensor, error) { return tensor.Cast(x, dtype) }
