package catalogxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// RawItem holds the text of one ITEM element keyed by field tag.
type RawItem map[string]string

// State is the position of the parser in the document.
type State int

const (
	OutsideDocument State = iota
	InDocument
	InCatalog
	InItem
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case OutsideDocument:
		return "outside-document"
	case InDocument:
		return "in-document"
	case InCatalog:
		return "in-catalog"
	case InItem:
		return "in-item"
	default:
		return "unknown"
	}
}

// Parser yields the items of a catalog dump in document order.
// It is not restartable and not safe for concurrent use.
type Parser struct {
	dec        *xml.Decoder
	catalogTag string
	itemTag    string

	state        State
	depth        int
	catalogDepth int
	sawRoot      bool

	// open field tags inside the current item, innermost last
	open []string
	item RawItem
	text strings.Builder

	err error
}

// Option configures a Parser.
type Option func(*Parser)

// WithTags overrides the catalog container and item element names.
func WithTags(catalog, item string) Option {
	return func(p *Parser) {
		p.catalogTag = catalog
		p.itemTag = item
	}
}

// NewParser creates a parser reading from r. Documents declaring a
// non-UTF-8 encoding are decoded with charsetReader.
func NewParser(r io.Reader, opts ...Option) *Parser {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	p := &Parser{
		dec:        dec,
		catalogTag: CatalogTag,
		itemTag:    ItemTag,
		state:      OutsideDocument,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current parser state.
func (p *Parser) State() State {
	return p.state
}

// Next returns the next complete item. It returns io.EOF once the document
// has been fully read, and an error wrapping domain.ErrStream when the
// document is malformed or truncated. After either, every call returns the
// same error.
func (p *Parser) Next() (RawItem, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.state == OutsideDocument {
		p.state = InDocument
	}

	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			p.err = p.finish()
			return nil, p.err
		}
		if err != nil {
			p.err = p.streamError(err.Error())
			return nil, p.err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.flushText()
			p.start(t.Name.Local)
		case xml.EndElement:
			p.flushText()
			if item := p.end(t.Name.Local); item != nil {
				return item, nil
			}
		case xml.CharData:
			if p.state == InItem {
				p.text.Write(t)
			}
		}
	}
}

func (p *Parser) start(name string) {
	p.depth++
	p.sawRoot = true

	switch p.state {
	case InDocument:
		if name == p.catalogTag {
			p.state = InCatalog
			p.catalogDepth = p.depth
		}
	case InCatalog:
		if name == p.itemTag {
			p.state = InItem
			p.item = make(RawItem)
			p.open = p.open[:0]
		}
	case InItem:
		p.open = append(p.open, name)
	}
}

// end handles an element end and returns the completed item, if any.
func (p *Parser) end(name string) RawItem {
	defer func() { p.depth-- }()

	switch p.state {
	case InItem:
		if len(p.open) > 0 {
			p.open = p.open[:len(p.open)-1]
			return nil
		}
		if name == p.itemTag {
			item := p.item
			p.item = nil
			p.state = InCatalog
			return item
		}
	case InCatalog:
		if name == p.catalogTag && p.depth == p.catalogDepth {
			p.state = InDocument
		}
	}
	return nil
}

// flushText delivers coalesced character data to the innermost open field.
func (p *Parser) flushText() {
	if p.text.Len() == 0 {
		return
	}
	raw := p.text.String()
	p.text.Reset()

	if p.state != InItem || len(p.open) == 0 {
		return
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return
	}
	p.item[p.open[len(p.open)-1]] += trimmed
}

func (p *Parser) finish() error {
	switch {
	case !p.sawRoot:
		return p.streamError("document has no root element")
	case p.state == InItem:
		return p.streamError("unexpected end of document inside " + p.itemTag)
	case p.state == InCatalog:
		return p.streamError("unexpected end of document inside " + p.catalogTag)
	}
	p.state = OutsideDocument
	return io.EOF
}

func (p *Parser) streamError(msg string) error {
	line, col := p.dec.InputPos()
	p.item = nil
	return fmt.Errorf("%w: line %d col %d: %s", domain.ErrStream, line, col, msg)
}
