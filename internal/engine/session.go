package engine

import "context"

// Session is a loaded, runnable instance of an acoustic model. A session
// supports at most one in-flight run at a time; bound tensors are consumed
// by the next Run and released when that run completes on every path.
type Session interface {
	// Inputs returns the input slots the model declares, in declared order.
	Inputs() []InputInfo

	// Bind associates a tensor with a declared input name for the next run.
	// Binding the same name twice replaces the earlier tensor.
	Bind(name string, t *Tensor)

	// Run begins one inference pass over the currently bound tensors and
	// returns a Stepper that advances it. Run fails with ErrMissingInput if
	// a declared input was never bound.
	Run(ctx context.Context) (Stepper, error)

	// Output returns the primary output tensor of the last completed run.
	// Before the run has fully advanced it returns nil.
	Output() (*Tensor, error)

	// Close releases the model and any in-flight run resources. Safe to call
	// while a run is advancing; remaining steps are abandoned.
	Close() error
}

// Stepper advances one inference run as a resumable unit of work. Each Step
// call does a bounded amount of work and returns, so a long-running run never
// monopolizes the driving loop.
type Stepper interface {
	// Step performs one unit of work. done reports whether the run finished;
	// once done, further calls keep reporting the same outcome.
	Step(ctx context.Context) (done bool, err error)
}
