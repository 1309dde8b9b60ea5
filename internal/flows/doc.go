// Package flows contains the orchestration behind Engine.Login and
// Engine.Logout.
//
// Each flow takes a dependency struct of plain functions and returns a
// result value, so it can be tested without Redis or a database. The
// Engine owns the resources and wires them in.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root adminauth package (import cycle).
//   - Perform I/O except through its dependency functions.
package flows
