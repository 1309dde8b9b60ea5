// Package httpapi exposes the login endpoints consumed by the admin SPA:
// /login, /logout, /captchaImage, /getInfo and /getRouters, plus /healthz
// and /metrics.
//
// Responses use the {code, msg, ...} envelope. Login failures are reported
// with HTTP 200 and code 500, which is what the front end expects.
package httpapi
