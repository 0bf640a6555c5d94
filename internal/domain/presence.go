package domain

import "sort"

// PresenceSnapshot is the server's latest word on who is online.
type PresenceSnapshot struct {
	OnlineUsers []string `json:"online_users"`
	TotalOnline int      `json:"total_online"`
}

// NewPresenceSnapshot dedupes and sorts the user list.
func NewPresenceSnapshot(users []string, total int) PresenceSnapshot {
	seen := make(map[string]struct{}, len(users))
	online := make([]string, 0, len(users))
	for _, u := range users {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		online = append(online, u)
	}
	sort.Strings(online)
	if total < 0 {
		total = 0
	}
	return PresenceSnapshot{OnlineUsers: online, TotalOnline: total}
}

func (p PresenceSnapshot) IsOnline(username string) bool {
	i := sort.SearchStrings(p.OnlineUsers, username)
	return i < len(p.OnlineUsers) && p.OnlineUsers[i] == username
}
