package workflow

// State is a node in a sub-entity state machine.
type State string

// Action is an actor-initiated operation that may move a state machine.
type Action string

// Table is a closed transition table for one sub-entity state machine.
// Illegal (state, action) pairs yield a TransitionError instead of an ad hoc
// string comparison at each call site.
type Table struct {
	entity string
	rules  map[State]map[Action]State
}

// NewTable creates an empty transition table for the named entity.
func NewTable(entity string) *Table {
	return &Table{
		entity: entity,
		rules:  make(map[State]map[Action]State),
	}
}

// Allow registers a legal transition.
func (t *Table) Allow(from State, action Action, to State) *Table {
	if t.rules[from] == nil {
		t.rules[from] = make(map[Action]State)
	}
	t.rules[from][action] = to
	return t
}

// Can reports whether action is legal from the given state.
func (t *Table) Can(from State, action Action) bool {
	_, ok := t.rules[from][action]
	return ok
}

// Apply resolves the successor state for (from, action), or a
// TransitionError when the pair is not in the table.
func (t *Table) Apply(from State, action Action) (State, error) {
	to, ok := t.rules[from][action]
	if !ok {
		return from, &TransitionError{Entity: t.entity, From: string(from), Action: string(action)}
	}
	return to, nil
}

// Terminal reports whether no action at all is legal from the given state.
func (t *Table) Terminal(from State) bool {
	return len(t.rules[from]) == 0
}
