package models

// User is a registered account. Password holds the stored hash and is blanked
// on every value handed out of the credential store.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
	Password string `db:"password" json:"-"`
}

// Session is the persisted flag set that gates access to bookings.
type Session struct {
	IsLoggedIn bool   `json:"isLoggedIn" yaml:"isLoggedIn"`
	Username   string `json:"username" yaml:"username"`
	Email      string `json:"email" yaml:"email"`
}
