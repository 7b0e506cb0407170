package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/graphdiff/internal/model"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
type Adam struct {
	model  *model.Model
	params []string
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int
	m      map[string][]float64
	v      map[string][]float64
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for the running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates an Adam optimizer for the named values of m.
func NewAdam(m *model.Model, names []string, config AdamConfig) (*Adam, error) {
	ps, err := params(m, names)
	if err != nil {
		return nil, err
	}
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		model:  m,
		params: ps,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[string][]float64),
		v:      make(map[string][]float64),
	}, nil
}

// Step performs a single optimization step with bias correction.
func (a *Adam) Step() error {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))

	for _, name := range a.params {
		param, grad, ok, err := gradient(a.model, name)
		if err != nil {
			return fmt.Errorf("adam: %w", err)
		}
		if !ok {
			continue
		}

		m, exists := a.m[name]
		if !exists {
			m = make([]float64, len(grad))
			a.m[name] = m
			a.v[name] = make([]float64, len(grad))
		}
		v := a.v[name]

		data := param.Float64s()
		for i, g := range grad {
			m[i] = a.beta1*m[i] + (1-a.beta1)*g
			v[i] = a.beta2*v[i] + (1-a.beta2)*g*g
			data[i] -= a.lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.eps)
		}
		if err := update(a.model, name, param, data); err != nil {
			return fmt.Errorf("adam: %q: %w", name, err)
		}
	}
	return nil
}

// ZeroGrad clears the model's gradients.
func (a *Adam) ZeroGrad() {
	a.model.ClearGradients()
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}
