package domain

import "time"

// User represents a bot user
type User struct {
	UserID     int64
	Authorized bool
	CreatedAt  time.Time
}

// InputState tells the bot how to read the user's next text message
type InputState string

const (
	InputIdle               InputState = "idle"
	InputWaitingTranslation InputState = "waiting_translation"
	InputWaitingTrim        InputState = "waiting_trim"
)
