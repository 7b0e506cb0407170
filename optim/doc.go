// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-descent optimizers for autodiff models.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// Parameters are named value nodes of a model, usually its inputs. Step
// reads each parameter's gradient from the evaluated gradient model and
// replaces the parameter's payload.
//
// # Training Loop Pattern
//
//	m, _ := autodiff.Load("examples/models/regression.yaml")
//	sgd, _ := optim.NewSGD(m, []string{"w", "b"}, optim.SGDConfig{LR: 0.5})
//
//	for range epochs {
//	    // 1. Zero gradients
//	    sgd.ZeroGrad()
//
//	    // 2. Forward pass
//	    _ = m.Forward()
//
//	    // 3. Backward pass and gradient evaluation
//	    _ = m.Backward("loss")
//	    _ = m.Gradient().Forward()
//
//	    // 4. Update parameters
//	    _ = sgd.Step()
//	}
package optim
