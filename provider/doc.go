// Package provider defines the request/response abstraction the wskit engine
// runs its exchanges through, plus the middleware that decorates it.
//
// The engine wraps its transport call once at construction:
//
//	exchange := provider.Chain(
//	    provider.WithLogging[*Request, *Response](log),
//	    provider.WithTracing[*Request, *Response](observability.SpanHTTPRequest),
//	    provider.WithMetrics[*Request, *Response](metrics),
//	)(provider.Func("httpclient", adapter.Exchange))
//
// Middleware learns about the call through the optional CallDescriber and
// StatusReporter interfaces, so it stays independent of the concrete types.
package provider
