package catalogxml

import (
	"sort"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// Tag names shared by every dump.
const (
	CatalogTag = "CATALOG"
	ItemTag    = "ITEM"
)

// Coercion describes how raw text becomes a field value.
type Coercion int

const (
	// String stores the trimmed text after entity repair.
	String Coercion = iota

	// Int parses a decimal integer, falling back to zero.
	Int

	// Float parses a decimal number, falling back to zero.
	Float

	// Discriminator compares the text with the schema's type code and
	// rejects the item on mismatch. The value itself is not stored.
	Discriminator
)

// String returns the coercion name.
func (c Coercion) String() string {
	switch c {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Discriminator:
		return "discriminator"
	default:
		return "unknown"
	}
}

// Field maps one source tag onto a record field.
type Field struct {
	Tag      string
	Coercion Coercion

	setString func(domain.Record, string)
	setInt    func(domain.Record, int)
	setFloat  func(domain.Record, float64)
}

// Schema is the field table for one record kind.
type Schema struct {
	Kind domain.Kind

	// TypeCode is the value the discriminator field must carry.
	// Empty when the kind has no discriminator.
	TypeCode string

	fields    map[string]Field
	newRecord func() domain.Record
	finish    func(domain.Record)
}

// Field looks up the mapping for a source tag.
func (s *Schema) Field(tag string) (Field, bool) {
	f, ok := s.fields[tag]
	return f, ok
}

// Tags returns the mapped source tags in sorted order.
func (s *Schema) Tags() []string {
	tags := make([]string, 0, len(s.fields))
	for tag := range s.fields {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// discriminatorTag returns the tag carrying the type code, if any.
func (s *Schema) discriminatorTag() (string, bool) {
	for tag, f := range s.fields {
		if f.Coercion == Discriminator {
			return tag, true
		}
	}
	return "", false
}

// SchemaFor returns the field table for a kind.
func SchemaFor(kind domain.Kind) (*Schema, error) {
	s, ok := schemas[kind]
	if !ok {
		return nil, domain.ErrUnsupportedKind
	}
	return s, nil
}

func text[R domain.Record](tag string, set func(R, string)) Field {
	return Field{Tag: tag, Coercion: String, setString: func(r domain.Record, v string) { set(r.(R), v) }}
}

func integer[R domain.Record](tag string, set func(R, int)) Field {
	return Field{Tag: tag, Coercion: Int, setInt: func(r domain.Record, v int) { set(r.(R), v) }}
}

func decimal[R domain.Record](tag string, set func(R, float64)) Field {
	return Field{Tag: tag, Coercion: Float, setFloat: func(r domain.Record, v float64) { set(r.(R), v) }}
}

func discriminator(tag string) Field {
	return Field{Tag: tag, Coercion: Discriminator}
}

func newSchema(kind domain.Kind, typeCode string, newRecord func() domain.Record, fields ...Field) *Schema {
	s := &Schema{
		Kind:      kind,
		TypeCode:  typeCode,
		fields:    make(map[string]Field, len(fields)),
		newRecord: newRecord,
	}
	for _, f := range fields {
		s.fields[f.Tag] = f
	}
	return s
}

var schemas = map[domain.Kind]*Schema{
	domain.KindCategory: newSchema(domain.KindCategory, "",
		func() domain.Record { return &domain.Category{} },
		integer("CATEGORY", func(c *domain.Category, v int) { c.ID = v }),
		text("CATEGORYNAME", func(c *domain.Category, v string) { c.Name = v }),
	),

	domain.KindPart: newSchema(domain.KindPart, "P",
		func() domain.Record { return &domain.Part{} },
		text("ITEMID", func(p *domain.Part, v string) { p.ID = v }),
		discriminator("ITEMTYPE"),
		text("ITEMNAME", func(p *domain.Part, v string) { p.Name = v }),
		integer("CATEGORY", func(p *domain.Part, v int) { p.CategoryID = v }),
		decimal("ITEMWEIGHT", func(p *domain.Part, v float64) { p.Weight = v }),
		decimal("ITEMDIMX", func(p *domain.Part, v float64) { p.DimX = v }),
		decimal("ITEMDIMY", func(p *domain.Part, v float64) { p.DimY = v }),
		decimal("ITEMDIMZ", func(p *domain.Part, v float64) { p.DimZ = v }),
	),

	domain.KindSet: newSchema(domain.KindSet, "S",
		func() domain.Record { return &domain.Set{} },
		text("ITEMID", func(s *domain.Set, v string) { s.ID = v }),
		discriminator("ITEMTYPE"),
		text("ITEMNAME", func(s *domain.Set, v string) { s.Name = v }),
		integer("CATEGORY", func(s *domain.Set, v int) { s.CategoryID = v }),
		integer("ITEMYEAR", func(s *domain.Set, v int) { s.Year = v }),
		decimal("ITEMWEIGHT", func(s *domain.Set, v float64) { s.Weight = v }),
		decimal("ITEMDIMX", func(s *domain.Set, v float64) { s.DimX = v }),
		decimal("ITEMDIMY", func(s *domain.Set, v float64) { s.DimY = v }),
		decimal("ITEMDIMZ", func(s *domain.Set, v float64) { s.DimZ = v }),
	),

	domain.KindColor: colorSchema(),
}

func colorSchema() *Schema {
	s := newSchema(domain.KindColor, "",
		func() domain.Record { return &domain.Color{} },
		integer("COLOR", func(c *domain.Color, v int) { c.ID = v }),
		text("COLORNAME", func(c *domain.Color, v string) { c.Name = v }),
		text("COLORRGB", func(c *domain.Color, v string) { c.RGB = v }),
		text("COLORTYPE", func(c *domain.Color, v string) { c.Type = v }),
		integer("COLORCNTPARTS", func(c *domain.Color, v int) { c.Parts = v }),
		integer("COLORCNTSETS", func(c *domain.Color, v int) { c.Sets = v }),
		integer("COLORCNTWANTED", func(c *domain.Color, v int) { c.Wanted = v }),
		integer("COLORCNTINV", func(c *domain.Color, v int) { c.ForSale = v }),
		integer("COLORYEARFROM", func(c *domain.Color, v int) { c.YearFrom = v }),
		integer("COLORYEARTO", func(c *domain.Color, v int) { c.YearTo = v }),
	)
	s.finish = func(r domain.Record) {
		c := r.(*domain.Color)
		c.RGB = domain.NormalizeRGB(c.RGB)
	}
	return s
}
