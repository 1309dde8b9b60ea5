// Package cache is the key-value store that holds CAPTCHA codes and login
// sessions. Values are strings with a per-key TTL.
//
// # Architecture boundaries
//
// The package knows nothing about sessions or CAPTCHAs. Callers own their key
// prefixes and value encodings.
package cache
