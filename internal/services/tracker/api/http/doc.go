// Package httpapi exposes combat sessions over HTTP/JSON and streams live
// session updates over a WebSocket.
//
// Requests pick their message locale from the lang query parameter or the
// Accept-Language header. When an identity verifier is configured every
// session route requires a signed-in caller.
package httpapi
