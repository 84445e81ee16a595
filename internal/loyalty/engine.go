package loyalty

import (
	"time"

	"github.com/google/uuid"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/models"
)

// Instant reward defaults when staff supply no details.
const (
	defaultInstantTitle   = "Instant Reward"
	defaultInstantDetails = "Special reward from staff"
	defaultInstantMessage = "You've received a special reward!"
)

// Outcome is the computed next-state of applying one action to a ledger
// snapshot. Nothing in it has been persisted; the service writes all of it
// in one transaction or none of it.
type Outcome struct {
	Ledger       *models.Ledger
	Reward       *models.Reward
	Notification *models.Notification
	Details      map[string]any
	// Mutated is false for recognized no-ops (unknown task rule ids):
	// the call succeeds but nothing is written, not even an audit entry.
	Mutated bool
}

// Apply computes the next ledger state for one action. It is pure: the input
// snapshot is never modified, all randomness comes through newID, and the
// clock comes through now — so re-running it against a freshly re-read
// snapshot under transaction retry is always safe.
func Apply(led *models.Ledger, act Action, outlet *models.Outlet, now time.Time, newID func() uuid.UUID) (*Outcome, error) {
	next := led.Clone()

	out := &Outcome{Ledger: next, Mutated: true}

	switch a := act.(type) {
	case AddStamp:
		campaign := a.CampaignID
		if campaign == "" {
			campaign = models.DefaultCampaign
		}
		current := next.Stamps[campaign]
		newStamps := current + a.Amount
		threshold := outlet.Threshold()

		// Exactly one reward per crossing: issued only when the pre-state
		// was below the threshold, and the campaign resets to zero so a
		// further reward requires re-accumulating from scratch.
		if current < threshold && newStamps >= threshold {
			issue(out, next, outlet.RewardTitle(), outlet.RewardDetails(),
				models.NotificationRewardIssued, outlet.RewardDetails(), now, newID)
			next.Stamps[campaign] = 0
		} else {
			next.Stamps[campaign] = newStamps
		}
		out.Details = map[string]any{
			"campaign_id":   campaign,
			"amount":        a.Amount,
			"reward_issued": out.Reward != nil,
		}

	case AddPoints:
		next.Points += a.Amount
		out.Details = map[string]any{"amount": a.Amount}

	case IssueInstantReward:
		title := a.Title
		if title == "" {
			title = defaultInstantTitle
		}
		details := a.Message
		if details == "" {
			details = defaultInstantDetails
		}
		message := a.Message
		if message == "" {
			message = defaultInstantMessage
		}
		issue(out, next, title, details, models.NotificationInstantReward, message, now, newID)
		out.Details = map[string]any{"title": title, "reward_issued": true}

	case TaskComplete:
		if a.RuleID != RuleShareReward {
			// Intentional no-op: unrecognized rules succeed without mutating.
			return &Outcome{Ledger: led, Mutated: false}, nil
		}
		next.Points += SharePoints
		out.Details = map[string]any{
			"rule_id":            a.RuleID,
			"client_event_token": a.ClientEventToken,
			"points_awarded":     SharePoints,
		}

	default:
		return nil, fault.InvalidArgument("unknown action %q", act.Kind())
	}

	next.LastActivity = now
	return out, nil
}

// issue creates a reward plus its notification event and appends the reward
// to the ledger.
func issue(out *Outcome, led *models.Ledger, title, details, notifType, message string, now time.Time, newID func() uuid.UUID) {
	rw := &models.Reward{
		ID:         newID(),
		CustomerID: led.CustomerID,
		OutletID:   led.OutletID,
		Title:      title,
		Details:    details,
		IssuedAt:   now,
		Redeemable: true,
	}
	rwID := rw.ID
	out.Reward = rw
	out.Notification = &models.Notification{
		ID:         newID(),
		CustomerID: led.CustomerID,
		Type:       notifType,
		RewardID:   &rwID,
		Message:    message,
		CreatedAt:  now,
	}
	led.RewardIDs = append(led.RewardIDs, rw.ID)
}
