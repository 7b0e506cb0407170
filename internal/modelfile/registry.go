package modelfile

import (
	"fmt"
	"slices"

	"github.com/born-ml/graphdiff/internal/autodiff/ops"
	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Constructor creates a rule from the parameters of an operator entry.
type Constructor func(p Params) (model.Rule, error)

// Registry maps operator types to rule constructors.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry creates a registry holding every built-in rule.
func NewRegistry() *Registry {
	r := &Registry{
		constructors: make(map[string]Constructor),
	}

	r.registerArithmetic()
	r.registerElementwise()
	r.registerShapeOps()

	return r
}

// Register adds or replaces the constructor for opType.
func (r *Registry) Register(opType string, c Constructor) {
	r.constructors[opType] = c
}

// Get returns the constructor for an operator type.
func (r *Registry) Get(opType string) (Constructor, bool) {
	c, ok := r.constructors[opType]
	return c, ok
}

// New creates the rule for opType.
func (r *Registry) New(opType string, p Params) (model.Rule, error) {
	c, ok := r.constructors[opType]
	if !ok {
		return nil, fmt.Errorf("unsupported operator %q: %w", opType, errs.ErrNotFound)
	}
	rule, err := c(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opType, err)
	}
	return rule, nil
}

// SupportedOps returns every registered operator type, sorted.
func (r *Registry) SupportedOps() []string {
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func fixed(rule model.Rule) Constructor {
	return func(Params) (model.Rule, error) { return rule, nil }
}

func (r *Registry) registerArithmetic() {
	r.Register("Add", fixed(ops.Add{}))
	r.Register("Sub", fixed(ops.Sub{}))
	r.Register("Mul", fixed(ops.Mul{}))
	r.Register("Div", fixed(ops.Div{}))
	r.Register("MatMul", fixed(ops.MatMul{}))
	r.Register("MeanSquaredError", fixed(ops.MeanSquaredError{}))
	r.Register("AddScalar", func(p Params) (model.Rule, error) {
		if p.Scalar == nil {
			return nil, fmt.Errorf("missing scalar: %w", errs.ErrInvalidParameter)
		}
		return ops.AddScalar{Scalar: *p.Scalar}, nil
	})
	r.Register("MulScalar", func(p Params) (model.Rule, error) {
		if p.Scalar == nil {
			return nil, fmt.Errorf("missing scalar: %w", errs.ErrInvalidParameter)
		}
		return ops.MulScalar{Scalar: *p.Scalar}, nil
	})
}

func (r *Registry) registerElementwise() {
	r.Register("Neg", fixed(ops.Neg{}))
	r.Register("Exp", fixed(ops.Exp{}))
	r.Register("Log", fixed(ops.Log{}))
	r.Register("Sin", fixed(ops.Sin{}))
	r.Register("Cos", fixed(ops.Cos{}))
	r.Register("Tanh", fixed(ops.Tanh{}))
	r.Register("Pow", func(p Params) (model.Rule, error) {
		if p.Exponent == nil {
			return nil, fmt.Errorf("missing exponent: %w", errs.ErrInvalidParameter)
		}
		return ops.Pow{Exponent: *p.Exponent}, nil
	})
}

func (r *Registry) registerShapeOps() {
	r.Register("Reshape", func(p Params) (model.Rule, error) {
		shape, err := p.shape()
		if err != nil {
			return nil, err
		}
		return ops.Reshape{Shape: shape}, nil
	})
	r.Register("BroadcastTo", func(p Params) (model.Rule, error) {
		shape, err := p.shape()
		if err != nil {
			return nil, err
		}
		return ops.BroadcastTo{Shape: shape}, nil
	})
	r.Register("SumTo", func(p Params) (model.Rule, error) {
		shape, err := p.shape()
		if err != nil {
			return nil, err
		}
		return ops.SumTo{Shape: shape}, nil
	})
	r.Register("Transpose", func(p Params) (model.Rule, error) {
		return ops.Transpose{Axes: slices.Clone(p.Axes)}, nil
	})
	r.Register("Sum", func(p Params) (model.Rule, error) {
		return ops.Sum{Axes: slices.Clone(p.Axes), KeepDims: p.KeepDims}, nil
	})
}

func (p Params) shape() (tensor.Shape, error) {
	if p.Shape == nil {
		return nil, fmt.Errorf("missing shape: %w", errs.ErrInvalidParameter)
	}
	shape := tensor.Shape(slices.Clone(p.Shape))
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return shape, nil
}
