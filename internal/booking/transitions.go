package booking

import "bookline/internal/models"

// Action names a state-machine operation on a booking.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionDecline  Action = "decline"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// Rule describes one edge set of the status graph: which statuses the
// action may leave from, where it lands, and who may trigger it.
type Rule struct {
	From         []string
	To           string
	ProviderOnly bool
	CustomerAlso bool
}

// rules is the single authoritative transition table. Every status write in
// the system goes through it; there is no other path to mutate status.
//
//	pending    -> confirmed (accept)    | declined (decline) | cancelled (cancel)
//	confirmed  -> in_progress (start)   | cancelled (cancel)
//	in_progress-> completed (complete)
//	declined, cancelled, completed are terminal.
var rules = map[Action]Rule{
	ActionAccept:   {From: []string{models.StatusPending}, To: models.StatusConfirmed, ProviderOnly: true},
	ActionDecline:  {From: []string{models.StatusPending}, To: models.StatusDeclined, ProviderOnly: true},
	ActionStart:    {From: []string{models.StatusConfirmed}, To: models.StatusInProgress, ProviderOnly: true},
	ActionComplete: {From: []string{models.StatusInProgress}, To: models.StatusCompleted, ProviderOnly: true},
	ActionCancel: {
		From:         []string{models.StatusPending, models.StatusConfirmed},
		To:           models.StatusCancelled,
		CustomerAlso: true,
	},
}

// RuleFor returns the transition rule for an action.
func RuleFor(action Action) (Rule, bool) {
	r, ok := rules[action]
	return r, ok
}

func (r Rule) allowsFrom(status string) bool {
	for _, s := range r.From {
		if s == status {
			return true
		}
	}
	return false
}
