package engine

import "math/rand/v2"

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// chooseRandom backs timeout auto-resolution; tests stub it.
var chooseRandom = func(options []string) string {
	return options[rand.IntN(len(options))]
}
