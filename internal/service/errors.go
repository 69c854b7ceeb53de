package service

import "fmt"

// ValidationError is a client error raised before any mutation.
type ValidationError struct {
	Location    string
	Name        string
	Description string
}

func (e *ValidationError) Error() string {
	return e.Message()
}

// Message renders the error for clients, e.g. "body: Filename is required.".
func (e *ValidationError) Message() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %s", e.Location, e.Description)
	}
	return fmt.Sprintf("%s in %s: %s", e.Name, e.Location, e.Description)
}

func invalid(location, description string) *ValidationError {
	return &ValidationError{Location: location, Description: description}
}
