package service

// Executor dispatches a job's unit of work. Submission never blocks on the
// work itself regardless of implementation.
type Executor interface {
	Execute(run func())
}

// GoExecutor runs the work on its own goroutine; the default in-process
// deployment. A distributed deployment would swap in an enqueue-to-worker
// implementation without touching the simulation code.
type GoExecutor struct{}

func (GoExecutor) Execute(run func()) {
	go run()
}

// SyncExecutor runs the work inline before returning, for dev runtimes and
// deterministic tests.
type SyncExecutor struct{}

func (SyncExecutor) Execute(run func()) {
	run()
}
