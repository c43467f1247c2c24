package indexer

import "fmt"

// TransitionError reports a lifecycle event that the entity's current status does not allow.
// It signals an upstream anomaly: the mutation is skipped, the checkpoint still commits.
type TransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition %s -> %s for %s", e.Entity, e.From, e.To, e.ID)
}
