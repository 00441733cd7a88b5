package ingest

import (
	"time"

	"github.com/jobhunterpro/jobhunter/internal/models"
)

// allowedTransitions defines the application state machine. Found is the
// entry state and can never be re-entered; Offer and Rejected accept no
// transitions at all.
var allowedTransitions = map[models.Status]map[models.Status]bool{
	models.StatusFound: {
		models.StatusApplied:   true,
		models.StatusInterview: true,
		models.StatusOffer:     true,
		models.StatusRejected:  true,
	},
	models.StatusApplied: {
		models.StatusInterview: true,
		models.StatusOffer:     true,
		models.StatusRejected:  true,
	},
	models.StatusInterview: {
		models.StatusApplied:  true,
		models.StatusOffer:    true,
		models.StatusRejected: true,
	},
	models.StatusOffer:    {},
	models.StatusRejected: {},
}

// Transition moves a posting to a new status, enforcing the state machine.
// Re-asserting the current status of a non-terminal posting is a no-op.
// The posting is only mutated when the transition is legal; on the first
// entry into Applied the applied timestamp is stamped, and re-entering
// Applied later does not re-stamp it.
func Transition(p *models.Posting, to models.Status, now time.Time) error {
	if !to.Valid() {
		return &InvalidTransitionError{From: p.Status, To: to}
	}

	from := p.Status
	if from == to {
		if from == models.StatusOffer || from == models.StatusRejected {
			return &InvalidTransitionError{From: from, To: to}
		}
		return nil
	}

	if !allowedTransitions[from][to] {
		return &InvalidTransitionError{From: from, To: to}
	}

	p.Status = to
	if to == models.StatusApplied && p.AppliedAt == nil {
		t := now.UTC()
		p.AppliedAt = &t
	}

	return nil
}
