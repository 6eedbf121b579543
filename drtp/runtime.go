package drtp

import "sync"

// Runtime bundles the process-wide pieces every transfer role shares:
// the event log worker, the one-transfer-at-a-time gate, and the worker
// join. One Runtime is built at program entry and passed by reference;
// nothing here is a singleton.
type Runtime struct {
	Log  *EventLog
	Done chan error

	gate sync.Mutex
	wg   sync.WaitGroup
}

func NewRuntime(log *EventLog) *Runtime {
	return &Runtime{
		Log:  log,
		Done: make(chan error, 1),
	}
}

// Run starts one transfer role on its own goroutine. The gate serializes
// whole transfers: a second Run blocks behind the first instead of
// interleaving with it. The role's result is delivered on Done.
func (r *Runtime) Run(role func() error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.gate.Lock()
		defer r.gate.Unlock()
		r.Done <- role()
	}()
}

// Join waits for every role started with Run.
func (r *Runtime) Join() {
	r.wg.Wait()
}

// Close drains and stops the event log. Call after Join.
func (r *Runtime) Close() {
	r.Log.Close()
}
