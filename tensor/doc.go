// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the numeric values carried by graph nodes.
//
// # Overview
//
// A RawTensor is a dense, row-major array with a shape and a data type.
// This package provides:
//   - Construction from Go slices, scalars and fill values
//   - NumPy-style broadcasting for element-wise arithmetic
//   - Matrix multiplication, transposition, reshaping and reductions
//   - Element-wise exp, log, sin, cos, tanh and integer powers
//
// # Basic Usage
//
//	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
//	y, _ := tensor.MatMul(x, x)
//	fmt.Println(y.Describe()) // float64(2,2) [[7 10] [15 22]]
//
// # Supported Data Types
//
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//   - uint64 (sizes and counts)
//
// Transcendental functions accept floating-point tensors only.
//
// # Broadcasting
//
// Shapes are aligned from the right; each pair of dimensions must be equal
// or one of them must be 1:
//
//	(2, 3) + (3,)   -> (2, 3)
//	(2, 1) * (1, 4) -> (2, 4)
package tensor
