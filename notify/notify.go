package notify

import "log"

// Notifier delivers one-time codes to customers. Real deployments plug in an
// email or SMS provider; the default writes to the process log.
type Notifier interface {
	SendCode(destination, code, purpose string) error
}

// LogNotifier is the console fallback delivery channel.
type LogNotifier struct{}

func (LogNotifier) SendCode(destination, code, purpose string) error {
	log.Printf("📨 %s code for %s: %s", purpose, destination, code)
	return nil
}
