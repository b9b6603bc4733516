package rebase

import "rebasepr.dev/rebasepr/internal/forge"

const (
	fixupPrefix  = "fixup! "
	squashPrefix = "squash! "
)

// parseDirective inspects a commit subject for an autosquash directive.
// It returns the target subject it names and whether a directive was found;
// a bare "fixup! " or "squash! " with nothing after it is not a directive.
func parseDirective(subject string) (action Action, target string, ok bool) {
	if rest, found := cutPrefix(subject, fixupPrefix); found && rest != "" {
		return Fixup, rest, true
	}
	if rest, found := cutPrefix(subject, squashPrefix); found && rest != "" {
		return Squash, rest, true
	}
	return Pick, "", false
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}

// bodyWithoutSubject strips the first line (the subject) from a commit
// message and any blank lines immediately following it, returning the body.
func bodyWithoutSubject(message string) string {
	nl := -1
	for i := 0; i < len(message); i++ {
		if message[i] == '\n' {
			nl = i
			break
		}
	}
	if nl == -1 {
		return ""
	}
	body := message[nl+1:]
	for len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}
	return body
}

// BuildPlan parses autosquash directives out of an ordered (oldest-first)
// commit series and produces the Plan the replay engine executes. Commits
// whose subject begins with "fixup! " or "squash! " are folded into the
// most recent prior Pick that shares the named subject, resolving through
// chains of directives if necessary. Any directive with no resolvable
// anchor, or a series that does not begin with a plain commit, fails with
// ErrAutosquashUnresolved.
//
// The directives are not necessarily adjacent to their anchor in commits:
// "git rebase --autosquash" moves them there before replay, and BuildPlan
// does the same, emitting each directive right after the Pick it targets
// (after any earlier directives for that Pick, in series order) regardless
// of where it sat in the original series. Replay can
// then fold a Fixup/Squash into the Pick it most recently produced without
// tracking anchors of its own.
func BuildPlan(commits []forge.Commit) (Plan, error) {
	type directive struct {
		commit forge.Commit
		action Action
	}

	// anchorOf maps a subject line (a Pick's own, or a directive's target)
	// to the index into picks it ultimately resolves to. It is overwritten
	// as newer Picks are seen, so "most recent prior" falls out of
	// processing the series in order.
	anchorOf := make(map[string]int)
	var picks []forge.Commit
	pending := make(map[int][]directive)

	for _, c := range commits {
		subject := c.Subject()
		action, target, isDirective := parseDirective(subject)

		if !isDirective {
			anchorOf[subject] = len(picks)
			picks = append(picks, c)
			continue
		}

		anchor, found := anchorOf[target]
		if !found {
			return Plan{}, &AutosquashUnresolvedError{Source: c.ID, Subject: subject}
		}

		pending[anchor] = append(pending[anchor], directive{commit: c, action: action})

		// Let a later directive target this fixup/squash commit's own
		// subject and resolve through to the same anchor.
		anchorOf[subject] = anchor
	}

	plan := Plan{Items: make([]ReplayItem, 0, len(commits))}
	for i, c := range picks {
		anchorIdx := len(plan.Items)
		plan.Items = append(plan.Items, ReplayItem{
			Source:  c.ID,
			Subject: c.Subject(),
			Message: c.Message,
			Action:  Pick,
		})

		for _, d := range pending[i] {
			plan.Items = append(plan.Items, ReplayItem{
				Source:  d.commit.ID,
				Subject: d.commit.Subject(),
				Action:  d.action,
				Anchor:  anchorIdx,
			})

			if d.action == Squash {
				body := bodyWithoutSubject(d.commit.Message)
				plan.Items[anchorIdx].Message = plan.Items[anchorIdx].Message + "\n\n" + body
			}
		}
	}

	return plan, nil
}
