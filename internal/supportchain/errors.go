package supportchain

import "fmt"

func errTruncated(text string) error {
	return fmt.Errorf("could not parse classification JSON from: %.200s", text)
}

func errUnknownIntent(intent string) error {
	return fmt.Errorf("unknown intent kind %q", intent)
}

func errBadConfidence(c float64) error {
	return fmt.Errorf("confidence %v outside [0,1]", c)
}
