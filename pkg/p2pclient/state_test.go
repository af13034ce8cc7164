package p2pclient

import "testing"

func TestStateClassification(t *testing.T) {
	cases := []struct {
		state      string
		queued     bool
		inProgress bool
		succeeded  bool
		errored    bool
	}{
		{"Queued, Remotely", true, false, false, false},
		{"InProgress", false, true, false, false},
		{"In Progress", false, true, false, false},
		{"Completed, Succeeded", false, false, true, false},
		{"Completed, Errored, Cancelled", false, false, false, true},
		{"Completed, Errored, FileNotFound", false, false, false, true},
	}
	for _, c := range cases {
		if got := IsQueued(c.state); got != c.queued {
			t.Errorf("IsQueued(%q) = %v, want %v", c.state, got, c.queued)
		}
		if got := IsInProgress(c.state); got != c.inProgress {
			t.Errorf("IsInProgress(%q) = %v, want %v", c.state, got, c.inProgress)
		}
		if got := IsSucceeded(c.state); got != c.succeeded {
			t.Errorf("IsSucceeded(%q) = %v, want %v", c.state, got, c.succeeded)
		}
		if got := IsErrored(c.state); got != c.errored {
			t.Errorf("IsErrored(%q) = %v, want %v", c.state, got, c.errored)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal("InProgress") {
		t.Error("InProgress should not be terminal")
	}
	if !IsTerminal("Completed, Succeeded") {
		t.Error("Succeeded should be terminal")
	}
	if !IsTerminal("Completed, Errored, Cancelled") {
		t.Error("Errored should be terminal")
	}
}
