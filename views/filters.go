package views

import (
	"fmt"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"

	"github.com/eringen/blockpress/blocks"
	"github.com/eringen/blockpress/content"
)

// DefaultDatePattern is the strftime pattern used by the date filter when
// the template does not pass one.
const DefaultDatePattern = "%Y-%m-%d %H:%M:%S"

func (e *Engine) funcs() template.FuncMap {
	return template.FuncMap{
		"render_block": e.renderBlock,
		"markdown":     e.markdown,
		"date":         formatDate,
		"ago":          ago,
	}
}

func (e *Engine) renderBlock(v any) (template.HTML, error) {
	b, ok := v.(content.Block)
	if !ok {
		return "", fmt.Errorf("render_block: %w: %T", blocks.ErrUnknownBlock, v)
	}
	return e.blocks.Render(b)
}

func (e *Engine) markdown(v any) (template.HTML, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("markdown: expected string, got %T", v)
	}
	return template.HTML(e.md.Render(s)), nil
}

func formatDate(v any, pattern ...string) (string, error) {
	layout := DefaultDatePattern
	if len(pattern) > 0 && pattern[0] != "" {
		layout = pattern[0]
	}
	t, err := toTime(v)
	if err != nil {
		return "", fmt.Errorf("date: %w", err)
	}
	return strftime.Format(layout, t), nil
}

func ago(v any) (string, error) {
	t, err := toTime(v)
	if err != nil {
		return "", fmt.Errorf("ago: %w", err)
	}
	return humanize.Time(t), nil
}

// timeLayouts are tried in order for string values. Fractional seconds are
// accepted by both.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
}

// toTime accepts a time.Time, a non-nil *time.Time or an RFC 3339 string
// (with a T or a space between date and time), and returns the instant in
// UTC.
func toTime(v any) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v.UTC(), nil
	case *time.Time:
		if v != nil {
			return v.UTC(), nil
		}
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid datetime format %q", v)
	}
	return time.Time{}, fmt.Errorf("value of type %T is not a valid datetime", v)
}
