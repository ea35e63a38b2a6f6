package profile

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type Mode string

const (
	ModeViewing Mode = "viewing"
	ModeEditing Mode = "editing"
)

// UserProfile is what the page shows and edits. Email comes from the
// identity and is never written back.
type UserProfile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Record is a row of the profiles table, keyed by the identity id.
type Record struct {
	ID        string      `db:"id"`
	FullName  null.String `db:"full_name"`
	Phone     null.String `db:"phone"`
	UpdatedAt time.Time   `db:"updated_at"`
}

type Balance struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Available bool   `json:"available"`
}

// State is everything the page remembers between requests.
type State struct {
	Mode    Mode         `json:"mode"`
	Loading bool         `json:"loading"`
	UserID  string       `json:"user_id,omitempty"`
	Loaded  *UserProfile `json:"loaded,omitempty"`
	Form    UserProfile  `json:"form"`
	Balance Balance      `json:"balance"`
}

func InitialState() State {
	return State{Mode: ModeViewing, Loading: true}
}

type formInput struct {
	FullName string `validate:"max=120"`
	Phone    string `validate:"max=32"`
}

// View is the render model of the page.
type View struct {
	Loading      bool        `json:"loading"`
	Editing      bool        `json:"editing"`
	Form         UserProfile `json:"form"`
	Email        string      `json:"email"`
	DisplayName  string      `json:"display_name"`
	Initials     string      `json:"initials"`
	FullNameText string      `json:"full_name_text"`
	PhoneText    string      `json:"phone_text"`
	Balance      string      `json:"balance"`
}
