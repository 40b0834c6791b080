// Package bot implements the moderation logic: the LLM-backed spam classifier,
// the per-group moderation policy and the examples bootstrap loader. The
// package doesn't know about telegram, events layer translates updates to
// Message and applies the returned Verdict.
package bot

import (
	"fmt"
	"strings"
	"time"
)

// Message is the primary record passed from the events layer to the moderator
type Message struct {
	ID     int
	ChatID int64
	From   User
	Text   string
	Sent   time.Time
}

// User defines the sender info of the Message
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"user_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// Verdict is the moderator's decision for a single message. The events layer
// translates it to telegram actions, the moderator itself never talks to the API.
type Verdict struct {
	Checked      bool // false when the check was skipped or unavailable
	Spam         bool
	Score        int     // classifier score, positive spam, negative ham
	Delete       bool    // message should be removed from the group
	Ban          bool    // sender should be banned
	Approved     bool    // sender added to approved members
	Lapsed       bool    // group ran out of credits, moderation disabled
	ChargedTo    int64   // admin who paid for the check, 0 if nobody was charged
	NotifyAdmins []int64 // admins to notify about detected spam or the lapse
	Details      string
}

// DisplayName returns user's display name or username or id
func DisplayName(u User) string {
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = fmt.Sprintf("%d", u.ID)
	}
	return strings.TrimSpace(name)
}
