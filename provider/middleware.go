package provider

// Middleware decorates a RequestResponse.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain applies middlewares so that the first one sees a call first and its
// result last. Nil entries are skipped.
func Chain[I, O any](middlewares ...Middleware[I, O]) Middleware[I, O] {
	return func(p RequestResponse[I, O]) RequestResponse[I, O] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			if mw := middlewares[i]; mw != nil {
				p = mw(p)
			}
		}
		return p
	}
}
