// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/graphdiff/internal/tensor"
)

// RawTensor is a dense array with a shape and a data type.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
//	data, _ := tensor.Data[float32](raw)
//	clone := raw.Clone() // deep copy
type RawTensor = tensor.RawTensor

// DataType identifies the element type of a RawTensor.
type DataType = tensor.DataType

// Supported data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Int32   = tensor.Int32
	Int64   = tensor.Int64
	Usize   = tensor.Usize
)

// Numeric is the set of Go element types a RawTensor can hold.
type Numeric = tensor.Numeric

// Shape lists the size of each dimension. An empty Shape is a scalar.
type Shape = tensor.Shape

// NewRaw creates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice[T Numeric](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// Scalar creates a rank-0 tensor.
func Scalar[T Numeric](v T) *RawTensor {
	return tensor.Scalar(v)
}

// Full creates a tensor with every element set to v.
func Full(shape Shape, dtype DataType, v float64) (*RawTensor, error) {
	return tensor.Full(shape, dtype, v)
}

// Data returns the backing slice of r as []T.
func Data[T Numeric](r *RawTensor) ([]T, error) {
	return tensor.Data[T](r)
}

// ParseDataType resolves a data type name such as "float32" or "i64".
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}

// BroadcastShapes returns the shape two operands broadcast to.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
