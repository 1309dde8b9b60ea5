// Package audit records login and logout events off the request path.
//
// # Components
//
//   - [Event]: one row of the login log (who, outcome, message, client).
//   - [Dispatcher]: buffered relay drained by a single worker goroutine.
//   - [Sink]: destination for events (zap logger, sys_logininfor table,
//     JSON lines, channel for tests).
//
// The dispatcher does not decide which events to emit; the login flow and
// the engine do.
package audit
