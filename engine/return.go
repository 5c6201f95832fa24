package engine

// Return makes the workflow's result v and stops the run immediately.
// The workflow must pass the returned error up through every enclosing
// call until its own return; the runner intercepts it at the top, so
// callers of Engine.Run see (v, nil) rather than an error.
//
// Because it travels as an ordinary error value, Return works from any
// depth of helper functions:
//
//	func lookup(fl *engine.Flow, key string) error {
//	    v, err := fl.Do(cacheGet(key))
//	    if err != nil {
//	        return err
//	    }
//	    if v != nil {
//	        return engine.Return(v)
//	    }
//	    return nil
//	}
func Return(v any) error {
	return &returnValue{value: v}
}

// returnValue is the tagged error that carries an early result out of a
// workflow. Only the runner unwraps it.
type returnValue struct {
	value any
}

func (r *returnValue) Error() string {
	return "workflow returned a value"
}
