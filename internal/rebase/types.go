// Package rebase implements a server-side rebase of a pull request against
// a forge.Client, reproducing `git rebase --autosquash` entirely through
// remote object creation and reference updates. See Rebase and
// NeedAutosquashing for the two entry points.
package rebase

import "rebasepr.dev/rebasepr/internal/forge"

// Action is what a ReplayItem does to the commit it replaces or becomes.
type Action int

const (
	// Pick places the source commit as its own commit with its original message.
	Pick Action = iota
	// Fixup folds the source's tree change into the anchor commit, discarding its message.
	Fixup
	// Squash folds the source's tree change into the anchor commit and appends its message.
	Squash
)

func (a Action) String() string {
	switch a {
	case Pick:
		return "PICK"
	case Fixup:
		return "FIXUP"
	case Squash:
		return "SQUASH"
	default:
		return "UNKNOWN"
	}
}

// ReplayItem is one step of a Plan: apply source on top of the cursor, then
// either keep it as a new commit (Pick) or fold it into an earlier one
// (Fixup/Squash).
type ReplayItem struct {
	Source  forge.CommitID
	Subject string // the source commit's own subject line, verbatim
	Message string // for Pick: the message to use when creating the commit.
	Action  Action
	Anchor  int // index into the Plan; meaningful only for Fixup/Squash
}

// Plan is the ordered sequence of actions the replay engine executes.
// Every Fixup/Squash follows the Pick it targets, with only other
// directives for that same Pick in between (BuildPlan reorders the source
// series to make this true), and its Anchor points at that Pick's index. That Pick's Message has already been folded to
// reflect any Squash items anchored to it.
type Plan struct {
	Items []ReplayItem
}

// PickCount returns the number of commits that will actually land on the
// rewritten branch.
func (p Plan) PickCount() int {
	n := 0
	for _, item := range p.Items {
		if item.Action == Pick {
			n++
		}
	}
	return n
}
