package provider

import "errors"

// Call is what middleware reports about one execution.
type Call struct {
	ExecutionID string
	Method      string
	URL         string
	Host        string
}

// CallDescriber is implemented by inputs that can describe themselves.
type CallDescriber interface {
	DescribeCall() Call
}

// StatusReporter is implemented by outputs that carry a status code.
type StatusReporter interface {
	Status() int
}

// ErrorKinder is implemented by errors that carry a short classification
// used as a metric label.
type ErrorKinder interface {
	ErrorKind() string
}

func describe(input any) Call {
	if d, ok := input.(CallDescriber); ok {
		return d.DescribeCall()
	}
	return Call{}
}

func statusOf(output any) int {
	if s, ok := output.(StatusReporter); ok {
		return s.Status()
	}
	return 0
}

func errorKind(err error) string {
	var k ErrorKinder
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return "error"
}
