package models

import (
	"encoding/json"
	"time"
)

// DefaultOutletID is used until an admin publishes outlet settings.
const DefaultOutletID = "default"

// Loyalty configuration defaults applied when an outlet leaves a field unset.
const (
	DefaultStampThreshold     = 10
	DefaultStampRewardTitle   = "Free Coffee"
	DefaultStampRewardDetails = "Congratulations! You've earned a free coffee."
)

// Outlet is the business context owning loyalty configuration. The action
// engine reads StampThreshold and the reward texts; the redemption service
// reads the consume-on-redeem settings.
type Outlet struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	StampThreshold     int             `json:"stamp_threshold"`
	StampRewardTitle   string          `json:"stamp_reward_title"`
	StampRewardDetails string          `json:"stamp_reward_details"`
	ConsumeOnRedeem    bool            `json:"consume_on_redeem"`
	RedeemPointsDebit  int             `json:"redeem_points_debit"`
	NotifyWebhookURL   string          `json:"notify_webhook_url,omitempty"`
	Published          json.RawMessage `json:"published,omitempty"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// DefaultOutlet returns the configuration used when no outlet row exists.
func DefaultOutlet(id string) *Outlet {
	return &Outlet{
		ID:                 id,
		StampThreshold:     DefaultStampThreshold,
		StampRewardTitle:   DefaultStampRewardTitle,
		StampRewardDetails: DefaultStampRewardDetails,
	}
}

// Threshold returns the effective stamp threshold.
func (o *Outlet) Threshold() int {
	if o.StampThreshold <= 0 {
		return DefaultStampThreshold
	}
	return o.StampThreshold
}

// RewardTitle returns the effective auto-issued reward title.
func (o *Outlet) RewardTitle() string {
	if o.StampRewardTitle == "" {
		return DefaultStampRewardTitle
	}
	return o.StampRewardTitle
}

// RewardDetails returns the effective auto-issued reward details text.
func (o *Outlet) RewardDetails() string {
	if o.StampRewardDetails == "" {
		return DefaultStampRewardDetails
	}
	return o.StampRewardDetails
}

// ContentBlock is a published piece of outlet content (hero blocks, events,
// news). Stored as opaque JSON; the rendered UI is an external collaborator.
type ContentBlock struct {
	ID        string          `json:"id"`
	OutletID  string          `json:"outlet_id"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}
