// Package clientinfo derives client metadata recorded on sessions and login
// audit events: the originating IP behind proxies, a coarse location for
// that IP, and browser/OS names from the User-Agent header.
package clientinfo
