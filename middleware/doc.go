// Package middleware holds the request pipeline that runs before any admin
// handler:
//
//	RepeatableBody -> XSS -> Authenticate -> [RequireAuthenticated] -> handler
//
// [RepeatableBody] buffers the body so later stages can read it more than
// once. [XSS] escapes HTML metacharacters in query, form and JSON input for
// configured paths. [Authenticate] resolves the bearer token to a session
// record and installs an [Identity]; it never rejects a request.
// [RequireAuthenticated] is the guard for routes that need one.
package middleware
