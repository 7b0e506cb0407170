// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config represents the base configuration for optimizers.
type Config = optim.Config

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer over the named values of m.
//
// Example:
//
//	sgd, err := optim.NewSGD(m, []string{"w", "b"}, optim.SGDConfig{
//	    LR:       0.1,
//	    Momentum: 0.9,
//	})
func NewSGD(m *model.Model, params []string, config SGDConfig) (*SGD, error) {
	return optim.NewSGD(m, params, config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer over the named values of m.
//
// Example:
//
//	adam, err := optim.NewAdam(m, []string{"w"}, optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
func NewAdam(m *model.Model, params []string, config AdamConfig) (*Adam, error) {
	return optim.NewAdam(m, params, config)
}
