package model

import "testing"

// TestStateOf tests status-code to link-state classification.
func TestStateOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code int
		want LinkState
	}{
		{name: "200 is ok", code: 200, want: StateOK},
		{name: "204 is ok", code: 204, want: StateOK},
		{name: "301 is redirect", code: 301, want: StateRedirect},
		{name: "404 is broken-client", code: 404, want: StateBrokenClient},
		{name: "410 is broken-client", code: 410, want: StateBrokenClient},
		{name: "500 is broken-server", code: 500, want: StateBrokenServer},
		{name: "503 is broken-server", code: 503, want: StateBrokenServer},
		{name: "0 is unreachable", code: 0, want: StateUnreachable},
		{name: "999 is unreachable", code: 999, want: StateUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := StateOf(tt.code); got != tt.want {
				t.Errorf("StateOf(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

// TestLinkStateString tests the state names used in reports.
func TestLinkStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state LinkState
		want  string
	}{
		{StateOK, "ok"},
		{StateRedirect, "redirect"},
		{StateBrokenClient, "broken-client"},
		{StateBrokenServer, "broken-server"},
		{StateUnreachable, "unreachable"},
		{LinkState(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestLinkStateBroken tests the broken classification.
func TestLinkStateBroken(t *testing.T) {
	t.Parallel()

	broken := []LinkState{StateBrokenClient, StateBrokenServer, StateUnreachable}
	for _, s := range broken {
		if !s.Broken() {
			t.Errorf("expected %v to be broken", s)
		}
	}

	healthy := []LinkState{StateOK, StateRedirect}
	for _, s := range healthy {
		if s.Broken() {
			t.Errorf("expected %v not to be broken", s)
		}
	}
}
