package passportr

import "errors"

var (
	// ErrStoreTornDown is returned by Initialize on a store that was already torn down.
	ErrStoreTornDown = errors.New("session store torn down")
	// ErrScopeTransition is returned when a scope is asked to move along an edge its phase does not allow.
	ErrScopeTransition = errors.New("invalid scope transition")
	// ErrBuilderUsed is returned by Build on a builder that already built an engine.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
)
