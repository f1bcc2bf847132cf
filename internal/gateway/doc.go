// Package gateway accepts processing requests for finished recordings and
// runs them on a bounded worker pool with single-flight semantics per file.
//
// ActiveSet is the mutex-guarded set of keys currently queued or running.
// Gateway.Submit acquires a key atomically, enqueues the job, and the worker
// that eventually runs it releases the key on every exit path. A second
// submission for a key that is still active fails with ErrAlreadyRunning.
//
// WebhookHandler adapts recorder "FileClosed" events to Submit.
package gateway
