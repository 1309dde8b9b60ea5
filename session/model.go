package session

import "slices"

// Record is the cached session state for one logged-in user. Timestamps are
// Unix epoch milliseconds.
type Record struct {
	SessionID     string   `json:"token"`
	UserID        string   `json:"userId"`
	Username      string   `json:"username"`
	Nickname      string   `json:"nickname,omitempty"`
	DeptID        string   `json:"deptId,omitempty"`
	Roles         []string `json:"roles"`
	Permissions   []string `json:"permissions"`
	LoginTime     int64    `json:"loginTime"`
	ExpireTime    int64    `json:"expireTime"`
	IPAddress     string   `json:"ipaddr,omitempty"`
	LoginLocation string   `json:"loginLocation,omitempty"`
	Browser       string   `json:"browser,omitempty"`
	OS            string   `json:"os,omitempty"`
}

// AllPermissions is the wildcard permission granted to administrators.
const AllPermissions = "*:*:*"

func (r *Record) HasRole(role string) bool {
	return r != nil && slices.Contains(r.Roles, role)
}

func (r *Record) HasPermission(perm string) bool {
	if r == nil {
		return false
	}
	return slices.Contains(r.Permissions, AllPermissions) || slices.Contains(r.Permissions, perm)
}

// LoginContext carries what the login flow knows about the authenticated
// user and the client at the moment a session is created.
type LoginContext struct {
	UserID      string
	Username    string
	Nickname    string
	DeptID      string
	Roles       []string
	Permissions []string
	IPAddress   string
	UserAgent   string
}

// dedupe returns values as a set, preserving first-seen order and dropping
// empty entries.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
