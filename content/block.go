package content

// Kind is the discriminator of a content block.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindCode      Kind = "code"
	KindCallout   Kind = "callout"
	KindCard      Kind = "card"
	KindImage     Kind = "image"
	KindQuote     Kind = "quote"
)

// Callout styles with a dedicated theme. Any other style string is valid
// and rendered with the neutral theme.
const (
	CalloutWarning = "warning"
	CalloutInfo    = "info"
	CalloutSuccess = "success"
	CalloutError   = "error"
)

// Block is one unit of post content. The set of implementations is closed:
// only the variants declared in this package satisfy it.
type Block interface {
	Kind() Kind
	isBlock()
}

// Heading is a section title in plain text.
type Heading struct {
	Text string `json:"text"`
}

// Paragraph is a run of markdown text.
type Paragraph struct {
	Markdown string `json:"markdown"`
}

// Code is a verbatim source listing. Code is never markdown-processed.
type Code struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Callout is highlighted markdown text with a visual style.
type Callout struct {
	Style    string `json:"style"`
	Markdown string `json:"markdown"`
}

// Card links to another resource with a title and a description.
type Card struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Image is a figure with an optional caption.
type Image struct {
	Src     string  `json:"src"`
	Alt     string  `json:"alt"`
	Caption *string `json:"caption"`
}

// Quote is a pull quote with an optional author.
type Quote struct {
	Text   string  `json:"text"`
	Author *string `json:"author"`
}

func (Heading) Kind() Kind   { return KindHeading }
func (Paragraph) Kind() Kind { return KindParagraph }
func (Code) Kind() Kind      { return KindCode }
func (Callout) Kind() Kind   { return KindCallout }
func (Card) Kind() Kind      { return KindCard }
func (Image) Kind() Kind     { return KindImage }
func (Quote) Kind() Kind     { return KindQuote }

func (Heading) isBlock()   {}
func (Paragraph) isBlock() {}
func (Code) isBlock()      {}
func (Callout) isBlock()   {}
func (Card) isBlock()      {}
func (Image) isBlock()     {}
func (Quote) isBlock()     {}
