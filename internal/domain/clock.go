package domain

import "github.com/jonboulle/clockwork"

// clock stamps GeneratedAt; tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for product generation. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
