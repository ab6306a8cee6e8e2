package model

// LinkState classifies a visit outcome by what it means for the link:
// healthy, redirected, broken on the client or server side, or not
// reachable at all.
type LinkState int

const (
	// StateOK indicates a 2xx response.
	StateOK LinkState = iota

	// StateRedirect indicates a 3xx response that was not followed
	// to a final 2xx (the redirect cap was reached or the response
	// itself was returned).
	StateRedirect

	// StateBrokenClient indicates a 4xx response.
	StateBrokenClient

	// StateBrokenServer indicates a 5xx response.
	StateBrokenServer

	// StateUnreachable indicates the page could not be fetched or
	// rendered at all: DNS failure, connection refused, timeout, or
	// a renderer error. There is no status code for these.
	StateUnreachable
)

// StateOf maps an HTTP status code to a LinkState.
// Codes outside the defined ranges are treated as unreachable.
func StateOf(statusCode int) LinkState {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return StateOK
	case statusCode >= 300 && statusCode < 400:
		return StateRedirect
	case statusCode >= 400 && statusCode < 500:
		return StateBrokenClient
	case statusCode >= 500 && statusCode < 600:
		return StateBrokenServer
	default:
		return StateUnreachable
	}
}

// String returns the state name used in reports and the database.
func (s LinkState) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateRedirect:
		return "redirect"
	case StateBrokenClient:
		return "broken-client"
	case StateBrokenServer:
		return "broken-server"
	case StateUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Broken reports whether this state represents a link worth flagging:
// a 4xx, a 5xx, or a page that could not be reached.
func (s LinkState) Broken() bool {
	return s == StateBrokenClient || s == StateBrokenServer || s == StateUnreachable
}
