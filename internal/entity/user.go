package entity

// UserLoginData is what the access token middleware puts into the request locals. Tokens issued by
// face login carry the enrolled label as Username and no Email.
type UserLoginData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// DisplayName is the label used for a new enrollment when the request names none.
func (u UserLoginData) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.ID
}
