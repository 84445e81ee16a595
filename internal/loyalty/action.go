package loyalty

import (
	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/models"
)

// Action kinds as they appear on the wire and in audit entries.
const (
	KindAddStamp           = "addStamp"
	KindAddPoints          = "addPoints"
	KindIssueInstantReward = "issueInstantReward"
	KindTaskComplete       = "taskComplete"
)

// RuleShareReward is the only task rule that awards points; every other rule
// id completes successfully without mutating the ledger.
const RuleShareReward = "share-reward"

// SharePoints awarded for completing the share task.
const SharePoints = 5

// Action is the closed set of ledger mutations the engine applies. Each
// variant carries its own typed parameters; dispatch is exhaustive in
// engine.Apply.
type Action interface {
	Kind() string
	isAction()
}

type AddStamp struct {
	CampaignID string
	Amount     int
}

type AddPoints struct {
	Amount int
}

type IssueInstantReward struct {
	Title   string
	Message string
}

type TaskComplete struct {
	RuleID           string
	ClientEventToken string
}

func (AddStamp) Kind() string           { return KindAddStamp }
func (AddPoints) Kind() string          { return KindAddPoints }
func (IssueInstantReward) Kind() string { return KindIssueInstantReward }
func (TaskComplete) Kind() string       { return KindTaskComplete }

func (AddStamp) isAction()           {}
func (AddPoints) isAction()          {}
func (IssueInstantReward) isAction() {}
func (TaskComplete) isAction()       {}

// RewardDetails carries the optional title/message for instant rewards.
type RewardDetails struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ParseStaffAction maps a wire-level staff action onto its typed variant.
// Omitted or zero amounts default to 1; negative amounts are rejected so
// addStamp/addPoints can never debit.
func ParseStaffAction(kind string, amount int, campaignID string, reward *RewardDetails) (Action, error) {
	if amount < 0 {
		return nil, fault.InvalidArgument("amount must not be negative")
	}
	if amount == 0 {
		amount = 1
	}
	if campaignID == "" {
		campaignID = models.DefaultCampaign
	}
	switch kind {
	case KindAddStamp:
		return AddStamp{CampaignID: campaignID, Amount: amount}, nil
	case KindAddPoints:
		return AddPoints{Amount: amount}, nil
	case KindIssueInstantReward:
		act := IssueInstantReward{}
		if reward != nil {
			act.Title = reward.Title
			act.Message = reward.Message
		}
		return act, nil
	default:
		return nil, fault.InvalidArgument("unknown action %q", kind)
	}
}
