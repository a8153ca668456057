package workflow

// Outcome is the result of a mutating case operation. It is either a patch
// carrying the updated sub-entity to merge into the cached aggregate in
// place, or an explicit signal that the whole aggregate must be refetched
// because the response was too ambiguous to trust as a partial update.
type Outcome struct {
	entity  interface{}
	refetch bool
}

// Patch wraps an updated entity to be merged into the aggregate view.
func Patch(entity interface{}) Outcome {
	return Outcome{entity: entity}
}

// RequiresRefetch signals that the cached aggregate must be reloaded.
func RequiresRefetch() Outcome {
	return Outcome{refetch: true}
}

// NeedsRefetch reports whether the caller must reload the full aggregate.
func (o Outcome) NeedsRefetch() bool {
	return o.refetch
}

// Entity returns the patched entity, or nil for a refetch outcome.
func (o Outcome) Entity() interface{} {
	if o.refetch {
		return nil
	}
	return o.entity
}
