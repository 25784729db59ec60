// Package component defines lifecycle-managed pieces of a wskit program.
//
// The engine component and the test echo server implement Component; the
// wsget command registers them in a Registry that starts them in order and
// stops them in reverse.
package component
