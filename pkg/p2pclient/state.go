package p2pclient

import "strings"

// Transfer states are free-form strings from the daemon; classification
// is substring-based rather than exact-match since daemons vary wording
// ("InProgress", "In Progress", "Completed, Succeeded").

func hasFold(state, substr string) bool {
	return strings.Contains(strings.ToLower(state), strings.ToLower(substr))
}

// IsQueued reports whether a transfer is still waiting to start.
func IsQueued(state string) bool { return hasFold(state, "Queued") }

// IsInProgress reports whether a transfer is actively transferring.
func IsInProgress(state string) bool { return hasFold(state, "InProgress") || hasFold(state, "In Progress") }

// IsSucceeded reports whether a transfer finished successfully.
func IsSucceeded(state string) bool { return hasFold(state, "Succeeded") || hasFold(state, "Completed") }

// IsErrored reports whether a transfer ended in failure.
func IsErrored(state string) bool { return hasFold(state, "Errored") || hasFold(state, "Failed") }

// IsTerminal reports whether no further progress is expected.
func IsTerminal(state string) bool { return IsSucceeded(state) || IsErrored(state) }
