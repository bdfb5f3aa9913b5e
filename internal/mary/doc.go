// Package mary implements the two client protocols spoken by a MARY
// text-to-speech server: the line-oriented socket protocol and the HTTP
// form interface on /process. Audio returned by the server is copied to
// the caller's writer verbatim.
package mary
