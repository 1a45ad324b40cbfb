package catalog

// String returns the wire name of k.
func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindNumber:
		return "number"
	default:
		return "text"
	}
}

// FieldInfo describes one field a course may use.
type FieldInfo struct {
	Name      Field    `json:"name" yaml:"name"`
	Label     string   `json:"label" yaml:"label"`
	Kind      string   `json:"kind" yaml:"kind"`
	Required  bool     `json:"required" yaml:"required"`
	MaxLength int      `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// SubtypeInfo is a selectable course and its fields.
type SubtypeInfo struct {
	Name   string      `json:"name" yaml:"name"`
	Fields []FieldInfo `json:"fields" yaml:"fields"`
}

// LetterTypeInfo is a letter type and its subtypes. A type without subtypes
// lists itself as its only course.
type LetterTypeInfo struct {
	Name     string        `json:"name" yaml:"name"`
	Subtypes []SubtypeInfo `json:"subtypes" yaml:"subtypes"`
}

// CategoryInfo is a category with its issuance channel and letter types.
type CategoryInfo struct {
	Name        string           `json:"name" yaml:"name"`
	Channel     Channel          `json:"channel" yaml:"channel"`
	LetterTypes []LetterTypeInfo `json:"letterTypes" yaml:"letterTypes"`
}

// Describe returns the whole catalog in display order.
func (c *Catalog) Describe() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.DescribeCategory(name))
	}
	return out
}

// DescribeCategory returns one category. Unknown names yield an entry with no
// letter types.
func (c *Catalog) DescribeCategory(category string) CategoryInfo {
	info := CategoryInfo{Name: category, Channel: c.Channel(category), LetterTypes: []LetterTypeInfo{}}
	for _, lt := range c.LetterTypes(category) {
		courses := c.Subtypes(category, lt)
		if len(courses) == 0 {
			courses = []string{lt}
		}
		lti := LetterTypeInfo{Name: lt}
		for _, course := range courses {
			lti.Subtypes = append(lti.Subtypes, SubtypeInfo{Name: course, Fields: DescribeFields(course)})
		}
		info.LetterTypes = append(info.LetterTypes, lti)
	}
	return info
}

// DescribeFields lists the fields course allows, in display order.
func DescribeFields(course string) []FieldInfo {
	allowed := Allowed(course)
	required := RequiredFields(course)
	out := []FieldInfo{}
	for _, f := range fieldOrder {
		if !allowed[f] {
			continue
		}
		spec := fieldSpecs[f]
		fi := FieldInfo{
			Name:      f,
			Label:     spec.Label,
			Kind:      spec.Kind.String(),
			Required:  required[f] || TypeWide(f),
			MaxLength: spec.MaxLength,
		}
		if spec.HasRange {
			min, max := spec.Min, spec.Max
			fi.Min, fi.Max = &min, &max
		}
		out = append(out, fi)
	}
	return out
}
