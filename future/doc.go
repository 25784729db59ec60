// Package future provides a generic single-resolution result.
//
// A Promise is resolved exactly once, from any goroutine; concurrent
// attempts race and the first one wins. Its Future can be awaited with a
// context, polled, or observed through callbacks.
//
//	p := future.NewPromise[int]()
//	go func() { p.Success(42) }()
//	v, err := p.Future().Await(ctx)
package future
