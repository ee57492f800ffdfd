package graph

import (
	"github.com/joshharrison/shoploom/internal/shop"
)

// Explicit uses the job's own Dependencies list as its precedence.
type Explicit struct{}

// Resolve implements DependencyStrategy.
func (Explicit) Resolve(job *shop.Job, _ []*shop.Job) ([]string, error) {
	var out []string
	for _, dep := range job.Dependencies {
		if dep == "" {
			continue
		}
		out = appendUnique(out, dep)
	}
	return out, nil
}

// CustomerPriority links jobs that share an ExternalRef (the customer order).
// A job waits for every other job of the same customer that outranks it; jobs
// of equal priority are chained in input order, so the rule alone can never
// produce a cycle.
type CustomerPriority struct{}

// Resolve implements DependencyStrategy.
func (CustomerPriority) Resolve(job *shop.Job, pool []*shop.Job) ([]string, error) {
	if job.ExternalRef == "" {
		return nil, nil
	}

	self := -1
	for i, other := range pool {
		if other.ID == job.ID {
			self = i
			break
		}
	}

	var out []string
	for i, other := range pool {
		if other.ID == job.ID || other.ExternalRef != job.ExternalRef {
			continue
		}
		ow, jw := other.Priority.Weight(), job.Priority.Weight()
		if ow > jw || (ow == jw && self >= 0 && i < self) {
			out = appendUnique(out, other.ID)
		}
	}
	return out, nil
}

// Combine merges the prerequisites of several strategies. The first error wins.
func Combine(strategies ...DependencyStrategy) DependencyStrategy {
	return combined(strategies)
}

type combined []DependencyStrategy

func (c combined) Resolve(job *shop.Job, pool []*shop.Job) ([]string, error) {
	var out []string
	for _, s := range c {
		ids, err := s.Resolve(job, pool)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			out = appendUnique(out, id)
		}
	}
	return out, nil
}

// StrategyFor maps a config name to a strategy: "explicit", "customer" or
// "combined" (the default for an empty name).
func StrategyFor(name string) (DependencyStrategy, bool) {
	switch name {
	case "explicit":
		return Explicit{}, true
	case "customer":
		return CustomerPriority{}, true
	case "", "combined":
		return Combine(Explicit{}, CustomerPriority{}), true
	}
	return nil, false
}
