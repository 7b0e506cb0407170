package model

import (
	"fmt"
	"time"

	"github.com/born-ml/graphdiff/internal/graph"
)

// Forward evaluates every operator in topological order, overwriting the
// payloads of the values they produce. Inputs and initializers must be
// populated first. A cyclic graph fails with ErrNotAcyclic before any
// operator runs.
func (m *Model) Forward() error {
	order, err := m.order(graph.Forward)
	if err != nil {
		return fmt.Errorf("forward: %w", err)
	}
	start := time.Now()
	ran := 0
	for _, id := range order {
		n, err := m.graph.Node(id)
		if err != nil {
			return fmt.Errorf("forward: %w", err)
		}
		if !n.Payload().IsOperator() {
			continue
		}
		op, err := m.OperatorOf(id)
		if err != nil {
			return fmt.Errorf("forward: %w", err)
		}
		if _, err := op.rule.Forward(id, m); err != nil {
			return fmt.Errorf("forward %s %q: %w", op.rule.Name(), n.Name(), err)
		}
		ran++
	}
	m.logger.Debug("forward complete",
		"model", m.id,
		"depth", m.depth,
		"operators", ran,
		"elapsed", time.Since(start))
	return nil
}
