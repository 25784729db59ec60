package httpclient

// CompletionHandler receives the outcome of an asynchronous execution.
// Exactly one method is called, once, on an engine goroutine.
type CompletionHandler interface {
	OnCompleted(resp *Response)
	OnThrowable(err error)
}

// CompletionFuncs adapts a pair of functions to CompletionHandler. Nil
// fields are ignored.
type CompletionFuncs struct {
	Completed func(*Response)
	Throwable func(error)
}

// OnCompleted calls Completed.
func (f CompletionFuncs) OnCompleted(resp *Response) {
	if f.Completed != nil {
		f.Completed(resp)
	}
}

// OnThrowable calls Throwable.
func (f CompletionFuncs) OnThrowable(err error) {
	if f.Throwable != nil {
		f.Throwable(err)
	}
}
