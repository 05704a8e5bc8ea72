package domain

type ChatID string

type ChatType string

const (
	ChatDirect  ChatType = "direct"
	ChatGroup   ChatType = "group"
	ChatChannel ChatType = "channel"
)

type MemberRole string

const (
	RoleOwner     MemberRole = "owner"
	RoleAdmin     MemberRole = "admin"
	RoleModerator MemberRole = "moderator"
	RoleGuest     MemberRole = "guest"
)

// Elevated reports whether the role may start/stop broadcasts and manage speakers.
func (r MemberRole) Elevated() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleModerator
}

// Chat is the directory view of a conversation: category plus member list.
// The engine never mutates chats; they are owned by the chat data store.
type Chat struct {
	ID        ChatID   `json:"id"`
	Name      string   `json:"name"`
	Type      ChatType `json:"type"`
	MemberIDs []UserID `json:"memberIds"`
}

func (c *Chat) HasMember(id UserID) bool {
	for _, m := range c.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// OtherMember returns the peer of a two-party chat.
func (c *Chat) OtherMember(id UserID) (UserID, bool) {
	for _, m := range c.MemberIDs {
		if m != id {
			return m, true
		}
	}
	return "", false
}
