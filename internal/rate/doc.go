// Package rate counts failed logins per username in Redis and locks the
// account out once the budget is spent.
//
// # Window semantics
//
// Fixed window: INCR plus EXPIRE on the first failure. The lock lasts until
// the counter key expires or a successful login resets it. Keys live under
// pwd_err_cnt:<username>.
package rate
