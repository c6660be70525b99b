package session

// Record is the logical credential state for one session. Empty fields are
// absent credentials.
type Record struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	APIKey       string `json:"api_key,omitempty"`
	UpdatedAt    int64  `json:"updated_at,omitempty"`
}

// Empty reports whether r carries no credential at all.
func (r Record) Empty() bool {
	return r.AccessToken == "" && r.RefreshToken == "" && r.APIKey == ""
}

// SameCredentials compares r and o ignoring UpdatedAt.
func (r Record) SameCredentials(o Record) bool {
	return r.AccessToken == o.AccessToken &&
		r.RefreshToken == o.RefreshToken &&
		r.APIKey == o.APIKey
}
