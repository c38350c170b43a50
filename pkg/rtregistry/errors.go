package rtregistry

import "fmt"

// Error is the registry's own error kind. It mirrors the
// (kind, message) shape of the higher-level rtcontainer.Error without
// importing rtcontainer, which sits above this package in the
// dependency order (Object header -> Any/Ref -> Type Registry ->
// Containers).
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func keyError(format string, args ...any) error {
	return &Error{Kind: "KeyError", Message: fmt.Sprintf(format, args...)}
}

func typeError(format string, args ...any) error {
	return &Error{Kind: "TypeError", Message: fmt.Sprintf(format, args...)}
}
