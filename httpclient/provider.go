package httpclient

import (
	"github.com/kbukum/wskit/provider"
)

// compile-time assertions
var _ provider.RequestResponse[*Request, *Response] = (*Adapter)(nil)
var _ provider.Closeable = (*Adapter)(nil)
var _ provider.Provider = (*Engine)(nil)
var _ provider.CallDescriber = (*Request)(nil)
var _ provider.StatusReporter = (*Response)(nil)
var _ provider.ErrorKinder = (*Error)(nil)
