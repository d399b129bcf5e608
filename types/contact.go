package types

import "time"

// Contact message status values.
const (
	ContactStatusNew     = "new"
	ContactStatusRead    = "read"
	ContactStatusReplied = "replied"
)

// ValidContactStatus reports whether s is one of the enumerated contact statuses.
func ValidContactStatus(s string) bool {
	switch s {
	case ContactStatusNew, ContactStatusRead, ContactStatusReplied:
		return true
	}
	return false
}

// Contact is a message submitted through the public contact form. UserID is
// attached opportunistically when the submitter carries a valid bearer token.
type Contact struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Subject   string    `json:"subject" db:"subject"`
	Message   string    `json:"message" db:"message"`
	Status    string    `json:"status" db:"status"`
	UserID    *int      `json:"user_id,omitempty" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
