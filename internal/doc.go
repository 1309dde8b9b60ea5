// Package internal holds helpers private to adminauth: random session ids
// and numeric codes.
//
// # Sub-packages
//
//   - audit: login log events, async dispatcher and sinks
//   - flows: login and logout orchestration
//   - rate: failed-login counter in Redis
//   - logging: zap logger construction
//   - database: PostgreSQL pool over pgx
package internal
