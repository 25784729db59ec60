// Package testutil provides test components for wskit packages.
//
// EchoServer is a gin backed component that reflects requests as JSON and
// guards routes with basic and digest challenges. T ties its lifecycle to a
// test.
//
//	func TestExchange(t *testing.T) {
//	    echo := testutil.NewEchoServer("user", "secret")
//	    testutil.T(t).Setup(echo)
//	    resp, err := http.Get(echo.URL() + "/echo/hello")
//	    ...
//	}
package testutil
