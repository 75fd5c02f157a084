// Package approval owns the draft lifecycle after generation: Pending until
// a moderator or the grace-period sweep moves it to Published, or a
// moderator moves it to Deleted. Both terminal states are final.
package approval

import (
	"errors"
	"fmt"
	"strings"

	"portfolio/internal/content"
)

// ErrNotPending is returned when a transition is requested for a draft that
// has already left Pending, including when a concurrent transition won.
var ErrNotPending = errors.New("draft is not pending")

type State int

const (
	StatePending State = iota
	StatePublished
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePublished:
		return "published"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

type Action string

const (
	ActionPublish Action = "publish"
	ActionDelete  Action = "delete"
)

// StateOf derives the lifecycle state from a stored draft. Deleted drafts
// no longer exist, so a stored draft is either pending or published.
func StateOf(d content.Draft) State {
	if d.Published {
		return StatePublished
	}
	return StatePending
}

// Next applies action to s.
func (s State) Next(action Action) (State, error) {
	if s != StatePending {
		return s, fmt.Errorf("%w: draft is %s", ErrNotPending, s)
	}
	switch action {
	case ActionPublish:
		return StatePublished, nil
	case ActionDelete:
		return StateDeleted, nil
	default:
		return s, fmt.Errorf("unknown action %q", action)
	}
}

// ParseCallback splits a button payload "<action>:<draft id>".
func ParseCallback(data string) (Action, string, error) {
	name, id, ok := strings.Cut(strings.TrimSpace(data), ":")
	if !ok || strings.TrimSpace(id) == "" {
		return "", "", fmt.Errorf("malformed callback %q", data)
	}
	action := Action(name)
	if action != ActionPublish && action != ActionDelete {
		return "", "", fmt.Errorf("unknown action %q", name)
	}
	return action, strings.TrimSpace(id), nil
}
