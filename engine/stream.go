package engine

// streamItem is one delivery on an unordered group's channel: a value,
// or the error that aborted the group.
type streamItem struct {
	value any
	err   error
}

// Stream delivers the results of an unordered MultiTask in completion
// order, one at a time, while the rest of the group is still running.
// It is consumed like sql.Rows:
//
//	st, err := fl.Stream(group)
//	if err != nil {
//	    return err
//	}
//	for st.Next() {
//	    handle(st.Value())
//	}
//	if err := st.Err(); err != nil {
//	    return err
//	}
//
// A Stream is single-pass and bound to the dispatch that produced it; it
// is not safe for concurrent use by multiple goroutines.
type Stream struct {
	items   <-chan streamItem
	current any
	err     error
	closed  bool
}

func newStream(capacity int) (*Stream, chan streamItem) {
	ch := make(chan streamItem, capacity)
	return &Stream{items: ch}, ch
}

// Next advances to the next completed result. It blocks until a group
// member finishes, and returns false once the group is exhausted or a
// member has failed. After false, consult Err.
func (s *Stream) Next() bool {
	if s.closed {
		return false
	}
	item, ok := <-s.items
	if !ok {
		s.closed = true
		return false
	}
	if item.err != nil {
		s.err = item.err
		s.closed = true
		return false
	}
	s.current = item.value
	return true
}

// Value returns the result Next advanced to. It is only valid after a
// true Next.
func (s *Stream) Value() any {
	return s.current
}

// Err returns the error that stopped the stream, or nil if the group
// ran to completion. Failed members of a skip-errors group never stop
// the stream and never surface here.
func (s *Stream) Err() error {
	return s.err
}

// Collect drains the remaining results into a slice, in completion
// order, and returns the stream's terminal error if any.
func (s *Stream) Collect() ([]any, error) {
	var results []any
	for s.Next() {
		results = append(results, s.current)
	}
	return results, s.err
}
