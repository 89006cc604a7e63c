package views

import (
	"errors"
	"fmt"
)

// ErrTemplateNotFound is wrapped by a TemplateError when a page name has no
// parsed template.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateError is returned by every page render that fails: a missing
// template, a bad context field, or a filter error raised while executing.
// It is always a server-side fault.
type TemplateError struct {
	Page string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("views: render %s: %v", e.Page, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}
