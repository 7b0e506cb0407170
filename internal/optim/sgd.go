package optim

import (
	"fmt"

	"github.com/born-ml/graphdiff/internal/model"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	model      *model.Model
	params     []string
	lr         float64
	momentum   float64
	velocities map[string][]float64
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates an SGD optimizer for the named values of m.
func NewSGD(m *model.Model, names []string, config SGDConfig) (*SGD, error) {
	ps, err := params(m, names)
	if err != nil {
		return nil, err
	}
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		model:      m,
		params:     ps,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[string][]float64),
	}, nil
}

// Step performs a single optimization step.
func (s *SGD) Step() error {
	for _, name := range s.params {
		param, grad, ok, err := gradient(s.model, name)
		if err != nil {
			return fmt.Errorf("sgd: %w", err)
		}
		if !ok {
			continue
		}

		step := grad
		if s.momentum != 0 {
			velocity, exists := s.velocities[name]
			if !exists {
				velocity = make([]float64, len(grad))
				s.velocities[name] = velocity
			}
			for i, g := range grad {
				velocity[i] = s.momentum*velocity[i] + g
			}
			step = velocity
		}

		data := param.Float64s()
		for i := range data {
			data[i] -= s.lr * step[i]
		}
		if err := update(s.model, name, param, data); err != nil {
			return fmt.Errorf("sgd: %q: %w", name, err)
		}
	}
	return nil
}

// ZeroGrad clears the model's gradients.
func (s *SGD) ZeroGrad() {
	s.model.ClearGradients()
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
