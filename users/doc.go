// Package users verifies credentials and resolves the role and permission
// sets that go into a login session.
//
// [CredentialsAuthenticator] combines a [Store] (in-memory from YAML, or
// PostgreSQL with the sys_user/sys_role/sys_menu schema) with a password
// verifier. Unknown users and wrong passwords both surface as
// [ErrBadCredentials] so callers cannot tell them apart.
package users
