package config

import "fmt"

// StartupError is a configuration problem that prevents the service from
// accepting any turn. Key names the missing or invalid setting.
type StartupError struct {
	Key  string
	Hint string
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup configuration: %s is not set correctly: %s", e.Key, e.Hint)
}
