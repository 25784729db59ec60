// Package ws is a fluent, asynchronous HTTP request API.
//
// A Request collects the method, URL, headers and realm, then Execute hands
// a snapshot to the process-wide engine and returns a future. The future
// resolves with a Response for any HTTP status, or fails with the engine's
// error unchanged.
//
//	resp, err := ws.URL("https://api.example.com/users/1").
//	    SetHeader("Accept", "application/json").
//	    Auth("user", "secret", ws.AuthSchemeDigest).
//	    Execute(ctx).
//	    Await(ctx)
//
// The engine is an *httpclient.Engine created lazily with default settings.
// Install a configured one with SetClient.
package ws
