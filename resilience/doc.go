// Package resilience holds the fault-tolerance primitives the wskit engine
// puts around every exchange.
//
// Retry uses cenkalti/backoff with Retry-After hints taking precedence over
// the computed delay. RateLimiter wraps golang.org/x/time/rate and Bulkhead
// wraps a golang.org/x/sync semaphore. CircuitBreaker fails fast once an
// upstream keeps failing.
//
// The engine nests them as bulkhead, then retry, then rate limiter, then
// breaker:
//
//	release, err := bulkhead.Acquire(ctx)
//	defer release()
//	resp, err := resilience.Retry(ctx, retryCfg, func() (*Response, error) {
//	    if err := limiter.Wait(ctx); err != nil {
//	        return nil, err
//	    }
//	    var resp *Response
//	    err := breaker.Execute(func() (err error) {
//	        resp, err = send(ctx)
//	        return err
//	    })
//	    return resp, err
//	})
package resilience
