// Package verify implements §5.2's asynchronous signature-verification variant: certificates expose
// a synchronous verify() the core calls inline, and this package's Pool supplies the asynchronous
// counterpart that resolves later on a worker thread pool rather than blocking the event loop.
package verify

import (
	"github.com/gammazero/workerpool"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/core"
	"github.com/lucent-chain/hotstuff/lib"
)

// Pool is a gammazero/workerpool-backed verifier. Every Verify* call returns immediately with a
// *core.Promise that resolves once the signature check has run on a pool worker; the caller (the
// pacemaker's event loop, via Promise.Then) must not act on the message until it resolves, per §5.2.
type Pool struct {
	wp *workerpool.WorkerPool
}

// New() starts a verification pool with the given worker concurrency
func New(workers int) *Pool {
	return &Pool{wp: workerpool.New(workers)}
}

// Stop() waits for queued verifications to finish and stops accepting new ones
func (p *Pool) Stop() { p.wp.StopWait() }

// result carries the outcome of an asynchronous verification back to the resolving goroutine
type result struct {
	err lib.ErrorI
}

// VerifyPartialAsync() checks a PartialCert's signature on a pool worker, resolving the returned
// Promise with a *result once done. The worker touches only the certificate's immutable bytes and
// the (also immutable, post-configuration) validator set's public keys, per §5's concurrency model.
func (p *Pool) VerifyPartialAsync(part *cert.PartialCert, vs *cert.ValidatorSet) *core.Promise {
	promise := core.NewPromise()
	p.wp.Submit(func() {
		err := part.Verify(vs)
		promise.Resolve(&result{err: err})
	})
	return promise
}

// VerifyQuorumAsync() checks a QuorumCert's aggregate signature on a pool worker
func (p *Pool) VerifyQuorumAsync(qc *cert.QuorumCert, vs *cert.ValidatorSet) *core.Promise {
	promise := core.NewPromise()
	p.wp.Submit(func() {
		err := qc.Verify(vs)
		promise.Resolve(&result{err: err})
	})
	return promise
}

// Err() unwraps the verification outcome a resolved Promise carries, nil on success
func Err(v interface{}) lib.ErrorI {
	r, ok := v.(*result)
	if !ok {
		return lib.ErrMalformedMsg("unexpected async verification result type")
	}
	return r.err
}
