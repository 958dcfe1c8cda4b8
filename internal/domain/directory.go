package domain

import "time"

// DirectoryEntry is one group or channel visible to a connected account.
type DirectoryEntry struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	MemberCount int    `json:"member_count"`
	Announce    bool   `json:"announce,omitempty"`
	Locked      bool   `json:"locked,omitempty"`
}

// Directory is the cached group/channel listing for one session.
// A zero LastFetched means the directory has never been fetched.
type Directory struct {
	Entries     []DirectoryEntry `json:"entries"`
	LastFetched time.Time        `json:"last_fetched"`
}

// Fresh reports whether the cache can be served without I/O: it has been
// populated and fetched within ttl.
func (d Directory) Fresh(ttl time.Duration, now time.Time) bool {
	if d.LastFetched.IsZero() || len(d.Entries) == 0 {
		return false
	}
	return now.Sub(d.LastFetched) < ttl
}
