package content

import (
	"encoding/json"
	"errors"
)

// Blocks is an ordered block sequence. Its JSON form is an array of tagged
// objects, e.g. {"type":"heading","text":"Intro"}.
type Blocks []Block

// MarshalJSON encodes a nil sequence as an empty array.
func (bs Blocks) MarshalJSON() ([]byte, error) {
	if bs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Block(bs))
}

// UnmarshalJSON decodes a tagged block array. Any unknown tag or missing
// required field fails the whole sequence.
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeBlocks(data)
	if err != nil {
		return err
	}
	*bs = decoded
	return nil
}

// DecodeBlocks decodes a stored JSON block array.
func DecodeBlocks(data []byte) (Blocks, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &DataError{Index: -1, Err: err}
	}
	out := make(Blocks, 0, len(raws))
	for i, raw := range raws {
		b, err := DecodeBlock(raw)
		if err != nil {
			var de *DataError
			if errors.As(err, &de) {
				de.Index = i
			}
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// DecodeBlock decodes a single tagged block object.
func DecodeBlock(data []byte) (Block, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &DataError{Index: -1, Err: err}
	}
	rawType, ok := fields["type"]
	if !ok || string(rawType) == "null" {
		return nil, &DataError{Index: -1, Err: ErrMissingBlockType}
	}
	var kind Kind
	if err := json.Unmarshal(rawType, &kind); err != nil {
		return nil, &DataError{Index: -1, Field: "type", Err: err}
	}

	r := &fieldReader{fields: fields, kind: kind}
	var b Block
	switch kind {
	case KindHeading:
		b = Heading{Text: r.required("text")}
	case KindParagraph:
		b = Paragraph{Markdown: r.required("markdown")}
	case KindCode:
		b = Code{Language: r.required("language"), Code: r.required("code")}
	case KindCallout:
		b = Callout{Style: r.required("style"), Markdown: r.required("markdown")}
	case KindCard:
		b = Card{
			Title:       r.required("title"),
			Description: r.required("description"),
			Link:        r.required("link"),
		}
	case KindImage:
		b = Image{Src: r.required("src"), Alt: r.required("alt"), Caption: r.optional("caption")}
	case KindQuote:
		b = Quote{Text: r.required("text"), Author: r.optional("author")}
	default:
		return nil, &DataError{Index: -1, Type: string(kind), Err: ErrUnknownBlockType}
	}
	if r.err != nil {
		return nil, r.err
	}
	return b, nil
}

// fieldReader extracts string fields of one block object, keeping the
// first error it sees.
type fieldReader struct {
	fields map[string]json.RawMessage
	kind   Kind
	err    error
}

func (r *fieldReader) required(name string) string {
	s := r.optional(name)
	if s == nil {
		r.fail(name, ErrMissingField)
		return ""
	}
	return *s
}

func (r *fieldReader) optional(name string) *string {
	raw, ok := r.fields[name]
	if !ok || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		r.fail(name, err)
		return nil
	}
	return &s
}

func (r *fieldReader) fail(name string, err error) {
	if r.err == nil {
		r.err = &DataError{Index: -1, Type: string(r.kind), Field: name, Err: err}
	}
}

func (b Heading) MarshalJSON() ([]byte, error) {
	type wire Heading
	return json.Marshal(struct {
		Type Kind `json:"type"`
		wire
	}{KindHeading, wire(b)})
}

func (b Paragraph) MarshalJSON() ([]byte, error) {
	type wire Paragraph
	return json.Marshal(struct {
		Type Kind `json:"type"`
		wire
	}{KindParagraph, wire(b)})
}

func (b Code) MarshalJSON() ([]byte, error) {
	type wire Code
	return json.Marshal(struct {
		Type Kind `json:"type"`
		wire
	}{KindCode, wire(b)})
}

func (b Callout) MarshalJSON() ([]byte, error) {
	type wire Callout
	return json.Marshal(struct {
		Type Kind `json:"type"`
		wire
	}{KindCallout, wire(b)})
}

func (b Card) MarshalJSON() ([]byte, error) {
	type wire Card
	return json.Marshal(struct {
		Type Kind `json:"type"`
		wire
	}{KindCard, wire(b)})
}

func (b Image) MarshalJSON() ([]byte, error) {
	type wire Image
	return json.Marshal(struct {
		Type Kind `json:"type"`
		wire
	}{KindImage, wire(b)})
}

func (b Quote) MarshalJSON() ([]byte, error) {
	type wire Quote
	return json.Marshal(struct {
		Type Kind `json:"type"`
		wire
	}{KindQuote, wire(b)})
}
