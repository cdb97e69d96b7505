package kick

// Badge is a sender attribute (follower, subscriber, moderator, ...).
type Badge struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Identity carries the sender's display attributes.
type Identity struct {
	Color  string  `json:"color"`
	Badges []Badge `json:"badges"`
}

// Sender is the author of a chat message.
type Sender struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Slug     string   `json:"slug"`
	Identity Identity `json:"identity"`
}

// ChatMessagePayload is the decoded payload of a ChatMessageEvent.
type ChatMessagePayload struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Sender    Sender `json:"sender"`
	CreatedAt string `json:"created_at"`
}

// SubscriptionPayload is the decoded payload of a ChannelSubscriptionEvent.
type SubscriptionPayload struct {
	ChannelID int64   `json:"channel_id"`
	UserIDs   []int64 `json:"user_ids"`
}

// FollowUser is a username holder inside a follow payload.
type FollowUser struct {
	Username string `json:"username"`
}

// FollowPayload is the decoded payload of a FollowEvent. The follower's
// name arrives either top-level or nested under "follower" depending on the
// relay version.
type FollowPayload struct {
	Username string      `json:"username"`
	Follower *FollowUser `json:"follower"`
	Followed FollowUser  `json:"followed"`
}

// FollowerName returns the follower's username, preferring the top-level
// field, with "unknown" as last resort.
func (p FollowPayload) FollowerName() string {
	if p.Username != "" {
		return p.Username
	}
	if p.Follower != nil && p.Follower.Username != "" {
		return p.Follower.Username
	}
	return "unknown"
}
