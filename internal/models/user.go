package models

import "time"

// User represents a wallet identity. The checksummed wallet address is the
// primary key; there is no separate account identifier.
type User struct {
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Socials holds the external links attached to a profile
type Socials struct {
	Website   string `json:"website"`
	Telegram  string `json:"telegram"`
	Discord   string `json:"discord"`
	Twitter   string `json:"twitter"`
	Opensea   string `json:"opensea"`
	Looksrare string `json:"looksrare"`
	Snapshot  string `json:"snapshot"`
}

// Profile holds the editable presentation data for a user
type Profile struct {
	Address   string    `json:"address"`
	Bio       string    `json:"bio"`
	Image     string    `json:"image"`
	Socials   Socials   `json:"socials"`
	UpdatedAt time.Time `json:"-"`
}

// ProfileView is a profile enriched with relationship counts relative to
// the requesting user
type ProfileView struct {
	Profile
	NumFollowers int  `json:"numFollowers"`
	NumFollowing int  `json:"numFollowing"`
	FollowedByMe bool `json:"followedByMe"`
}

// Follow represents a directed follow edge between two wallets.
// Unique on (src, dest); src never equals dest.
type Follow struct {
	Src       string    `json:"src"`
	Dest      string    `json:"dest"`
	CreatedAt time.Time `json:"createdAt"`
}
