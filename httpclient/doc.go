// Package httpclient is the asynchronous HTTP engine behind package ws.
//
// Adapter is the synchronous client. It owns the transport (TLS, optional
// HTTP/2, cookie jar) and the resilience primitives (retry, circuit breaker,
// rate limiter). Engine runs an Adapter exchange per submission on its own
// goroutine and reports the outcome to a CompletionHandler.
//
// # Basic Usage
//
//	engine, err := httpclient.NewEngine(httpclient.Config{
//	    Timeout:    10 * time.Second,
//	    MaxRetries: 2,
//	})
//
//	req, err := httpclient.NewRequestBuilder(http.MethodGet).
//	    SetURL("https://api.example.com/users/123").
//	    AddHeader("Accept", "application/json").
//	    SetRealm(httpclient.DigestAuth("user", "secret")).
//	    Build()
//
//	err = engine.ExecuteRequest(ctx, req, httpclient.CompletionFuncs{
//	    Completed: func(resp *httpclient.Response) { ... },
//	    Throwable: func(err error) { ... },
//	})
//
// Any HTTP status is delivered as a Response. Use Adapter.Do for a
// synchronous call that classifies non-2xx statuses as *Error.
package httpclient
