// Package password hashes and verifies user passwords.
//
// New hashes are Argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Accounts migrated from older admin systems carry bcrypt hashes ($2a$,
// $2b$, $2y$). [Multi] verifies either kind by looking at the prefix, so
// both can live in the same user table.
package password
