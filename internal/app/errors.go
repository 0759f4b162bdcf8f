package app

import "fmt"

// DomainError carries a presentation-ready failure: an HTTP status, a
// stable machine code and a user-facing message.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
