package models

// InfluencerProfile is the subset of the influencer directory record the
// pipeline snapshots onto a collaboration at creation time.
type InfluencerProfile struct {
	ID                string `json:"id"`
	Nickname          string `json:"nickname"`
	Platform          string `json:"platform"`
	PlatformAccountID string `json:"platform_account_id"`
}

// StaffMember is the subset of the staff directory record used for owner
// display snapshots.
type StaffMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
