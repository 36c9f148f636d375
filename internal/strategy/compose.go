// Package strategy provides strategy composition and a sample moving-average
// crossover strategy for tests and runners.
package strategy

import (
	"context"
	"sync"

	"quantsim/internal/domain"
	"quantsim/internal/ports"
)

// MultiStrategy runs several strategies sequentially and concatenates their
// signals in declaration order.
type MultiStrategy struct {
	children []ports.Strategy
}

// NewMultiStrategy composes the given strategies.
func NewMultiStrategy(children ...ports.Strategy) *MultiStrategy {
	return &MultiStrategy{children: children}
}

func (m *MultiStrategy) Generate(ctx context.Context, event domain.Event) []domain.Signal {
	var signals []domain.Signal
	for _, child := range m.children {
		signals = append(signals, child.Generate(ctx, event)...)
	}
	return signals
}

func (m *MultiStrategy) Start(phase ports.Phase) {
	for _, child := range m.children {
		child.Start(phase)
	}
}

func (m *MultiStrategy) End(phase ports.Phase) {
	for _, child := range m.children {
		child.End(phase)
	}
}

func (m *MultiStrategy) Reset() {
	for _, child := range m.children {
		child.Reset()
	}
}

// ParallelStrategy runs its children concurrently for each event and joins
// before returning. The concatenation order is declaration order, not
// completion order, so the result is indistinguishable from the sequential
// composition.
type ParallelStrategy struct {
	children []ports.Strategy
}

// NewParallelStrategy composes the given strategies for concurrent evaluation.
func NewParallelStrategy(children ...ports.Strategy) *ParallelStrategy {
	return &ParallelStrategy{children: children}
}

func (p *ParallelStrategy) Generate(ctx context.Context, event domain.Event) []domain.Signal {
	results := make([][]domain.Signal, len(p.children))
	var wg sync.WaitGroup
	for i, child := range p.children {
		wg.Add(1)
		go func(i int, child ports.Strategy) {
			defer wg.Done()
			results[i] = child.Generate(ctx, event)
		}(i, child)
	}
	wg.Wait()

	var signals []domain.Signal
	for _, part := range results {
		signals = append(signals, part...)
	}
	return signals
}

func (p *ParallelStrategy) Start(phase ports.Phase) {
	for _, child := range p.children {
		child.Start(phase)
	}
}

func (p *ParallelStrategy) End(phase ports.Phase) {
	for _, child := range p.children {
		child.End(phase)
	}
}

func (p *ParallelStrategy) Reset() {
	for _, child := range p.children {
		child.Reset()
	}
}
