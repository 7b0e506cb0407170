// Package optim implements gradient-descent optimizers over model inputs.
//
// An optimizer owns a list of parameter names, each naming a value node of
// a model. Step reads every parameter's evaluated gradient and writes the
// updated payload back with SetInput:
//
//	sgd, err := optim.NewSGD(m, []string{"w", "b"}, optim.SGDConfig{LR: 0.1})
//	for range epochs {
//	    m.ClearGradients()
//	    _ = m.Forward()
//	    _ = m.Backward("loss")
//	    _ = m.Gradient().Forward()
//	    _ = sgd.Step()
//	}
package optim

import (
	"errors"
	"fmt"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Optimizer updates model parameters from their gradients.
type Optimizer interface {
	// Step applies one update to every parameter. Parameters whose
	// gradient was never built are left unchanged.
	Step() error

	// ZeroGrad discards the model's gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config is the base configuration shared by optimizers.
type Config struct {
	LR float64
}

// params resolves and validates the parameter names of m.
func params(m *model.Model, names []string) ([]string, error) {
	if m == nil {
		return nil, fmt.Errorf("optimizer: nil model: %w", errs.ErrInvalidParameter)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("optimizer: no parameters: %w", errs.ErrInvalidParameter)
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("optimizer: parameter %q: %w", name, errs.ErrDuplicate)
		}
		seen[name] = true
		if _, err := m.ValueByName(name); err != nil {
			return nil, fmt.Errorf("optimizer: %w", err)
		}
	}
	return append([]string(nil), names...), nil
}

// gradient returns the parameter and gradient of name as float64 slices.
// ok is false when name has no gradient.
func gradient(m *model.Model, name string) (param *tensor.RawTensor, grad []float64, ok bool, err error) {
	g, err := m.Grad(name)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}
	param, err = m.Value(name)
	if err != nil {
		return nil, nil, false, err
	}
	if !param.Shape().Equal(g.Shape()) {
		return nil, nil, false, fmt.Errorf("gradient of %q has shape %v, want %v: %w",
			name, g.Shape(), param.Shape(), errs.ErrSizeMismatch)
	}
	return param, g.Float64s(), true, nil
}

// update writes data, converted to the dtype of like, into parameter name.
func update(m *model.Model, name string, like *tensor.RawTensor, data []float64) error {
	t, err := tensor.FromSlice(data, like.Shape().Clone())
	if err != nil {
		return err
	}
	if like.DType() != tensor.Float64 {
		if t, err = tensor.Cast(t, like.DType()); err != nil {
			return err
		}
	}
	return m.SetInput(name, t)
}
