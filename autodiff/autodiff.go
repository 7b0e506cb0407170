// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides graph-rewriting automatic differentiation.
//
// A Model is a computation graph of value and operator nodes. Backward does
// not compute numbers: it builds a second Model, the gradient model, whose
// forward evaluation yields the gradients. The gradient model is an
// ordinary Model, so it can be differentiated again for higher-order
// derivatives.
//
// Example:
//
//	import (
//	    "github.com/born-ml/graphdiff/autodiff"
//	    "github.com/born-ml/graphdiff/tensor"
//	)
//
//	func main() {
//	    x, _ := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{3})
//	    m, _ := autodiff.New(
//	        []autodiff.ValueSpec{{Name: "x", Value: x}},
//	        []autodiff.ValueSpec{{Name: "y"}},
//	        []autodiff.OperatorSpec{{Name: "cube", Inputs: []string{"x"}, Outputs: []string{"y"}, Rule: autodiff.Pow{Exponent: 3}}},
//	        nil,
//	    )
//
//	    _ = m.Forward()
//	    _ = m.Backward("y")          // builds dy/dx
//	    _ = m.Gradient().Forward()   // evaluates it
//	    dx, _ := m.Grad("x")         // [3 12 27]
//	}
package autodiff

import (
	"github.com/born-ml/graphdiff/internal/autodiff/ops"
	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/modelfile"
)

// Model is a computation graph with its value and operator arenas.
type Model = model.Model

// Rule is a differentiation rule: a forward computation plus the backward
// step that splices its local derivative into the gradient model.
type Rule = model.Rule

// ValueSpec declares a named value.
type ValueSpec = model.ValueSpec

// OperatorSpec declares a named operator.
type OperatorSpec = model.OperatorSpec

// Option configures a Model.
type Option = model.Option

// NodeID identifies a node within a Model's graph.
type NodeID = graph.NodeID

// ValueID identifies a value within a Model's value arena.
type ValueID = graph.ValueID

// New builds a Model from named declarations.
func New(inputs, outputs []ValueSpec, operators []OperatorSpec, initializers []ValueSpec, opts ...Option) (*Model, error) {
	return model.New(inputs, outputs, operators, initializers, opts...)
}

// WithLogger sets the logger for forward, backward and splicing events.
var WithLogger = model.WithLogger

// InsertStructure splices template into target, binding its inputs to the
// given target nodes. See model.InsertStructure.
func InsertStructure(target, template *Model, bindings []NodeID) ([]NodeID, error) {
	return model.InsertStructure(target, template, bindings)
}

// SetOrAdd records contribution as the gradient of x, or adds it to the
// existing gradient.
func SetOrAdd(m *Model, x ValueID, contribution NodeID) error {
	return ops.SetOrAdd(m, x, contribution)
}

// Load reads a YAML model file and builds it with the built-in rules.
func Load(path string, opts ...Option) (*Model, error) {
	def, err := modelfile.Load(path)
	if err != nil {
		return nil, err
	}
	return def.Build(modelfile.NewRegistry(), opts...)
}

// Built-in rules.
type (
	Add              = ops.Add
	Sub              = ops.Sub
	Mul              = ops.Mul
	Div              = ops.Div
	Neg              = ops.Neg
	MatMul           = ops.MatMul
	Reshape          = ops.Reshape
	Transpose        = ops.Transpose
	BroadcastTo      = ops.BroadcastTo
	SumTo            = ops.SumTo
	Sum              = ops.Sum
	Pow              = ops.Pow
	Exp              = ops.Exp
	Log              = ops.Log
	Sin              = ops.Sin
	Cos              = ops.Cos
	Tanh             = ops.Tanh
	AddScalar        = ops.AddScalar
	MulScalar        = ops.MulScalar
	MeanSquaredError = ops.MeanSquaredError
)

// Errors returned by the engine. Test with errors.Is.
var (
	ErrNotFound         = errs.ErrNotFound
	ErrAlreadyExists    = errs.ErrAlreadyExists
	ErrDuplicate        = errs.ErrDuplicate
	ErrSizeMismatch     = errs.ErrSizeMismatch
	ErrSizeTooSmall     = errs.ErrSizeTooSmall
	ErrNotAcyclic       = errs.ErrNotAcyclic
	ErrTypeMismatch     = errs.ErrTypeMismatch
	ErrUnset            = errs.ErrUnset
	ErrOverflow         = errs.ErrOverflow
	ErrInvalidParameter = errs.ErrInvalidParameter
)
