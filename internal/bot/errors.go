package bot

import "fmt"

// NotConfiguredError means a required Discord identifier is missing from configuration.
type NotConfiguredError struct {
	Name string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Name)
}
