package domain

import "time"

// Author identifies the Telegram user who submitted a joke.
type Author struct {
	ID   int64
	Name string
}

// Joke represents a stored joke. Jokes are never updated after insertion.
type Joke struct {
	ID        int64
	Author    Author
	Text      string
	CreatedAt time.Time
}
