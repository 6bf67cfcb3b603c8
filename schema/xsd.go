package schema

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Load compiles an AXL-style XSD document into an Index for the given API
// version. The supported subset is the set of constructs the AXL request and
// response elements actually use: top-level elements, named and inline
// complexType/sequence/choice, simpleType restrictions with enumerations,
// minOccurs/maxOccurs and default attributes. Anything else fails with a
// *ParseError, and a failed load never populates the index.
func Load(version string, src []byte) (*Index, error) {
	var doc xsdDoc
	if err := xml.Unmarshal(src, &doc); err != nil {
		return nil, &ParseError{Version: version, Reason: "invalid schema XML", Cause: err}
	}
	if len(doc.Elements) == 0 {
		return nil, &ParseError{Version: version, Reason: "schema declares no top-level elements"}
	}

	r := &resolver{version: version, doc: &doc}
	ops := make(map[string]*OperationSchema)

	// First pass: request elements become operations.
	for i := range doc.Elements {
		el := &doc.Elements[i]
		if el.Name == "" {
			return nil, &ParseError{Version: version, Reason: "top-level element without a name"}
		}
		if strings.HasSuffix(el.Name, "Response") {
			continue
		}
		if _, dup := ops[el.Name]; dup {
			return nil, &ParseError{Version: version, Reason: fmt.Sprintf("duplicate operation %q", el.Name)}
		}
		root, err := r.element(el, nil)
		if err != nil {
			return nil, err
		}
		root.Required = true
		root.link()
		ops[el.Name] = &OperationSchema{Name: el.Name, Version: version, Request: root}
	}

	// Second pass: response elements attach to their operation.
	for i := range doc.Elements {
		el := &doc.Elements[i]
		if !strings.HasSuffix(el.Name, "Response") {
			continue
		}
		opName := strings.TrimSuffix(el.Name, "Response")
		op, ok := ops[opName]
		if !ok {
			return nil, &ParseError{Version: version, Reason: fmt.Sprintf("response element %q has no matching request", el.Name)}
		}
		root, err := r.element(el, nil)
		if err != nil {
			return nil, err
		}
		root.link()
		op.Response = root
	}

	return &Index{version: version, ops: ops}, nil
}

// ---- XSD document shape ----

type xsdDoc struct {
	XMLName      xml.Name         `xml:"http://www.w3.org/2001/XMLSchema schema"`
	Elements     []xsdElement     `xml:"http://www.w3.org/2001/XMLSchema element"`
	ComplexTypes []xsdComplexType `xml:"http://www.w3.org/2001/XMLSchema complexType"`
	SimpleTypes  []xsdSimpleType  `xml:"http://www.w3.org/2001/XMLSchema simpleType"`
}

type xsdElement struct {
	Name        string          `xml:"name,attr"`
	Type        string          `xml:"type,attr"`
	MinOccurs   string          `xml:"minOccurs,attr"`
	MaxOccurs   string          `xml:"maxOccurs,attr"`
	Default     string          `xml:"default,attr"`
	Nillable    string          `xml:"nillable,attr"`
	ComplexType *xsdComplexType `xml:"http://www.w3.org/2001/XMLSchema complexType"`
	SimpleType  *xsdSimpleType  `xml:"http://www.w3.org/2001/XMLSchema simpleType"`
}

type xsdComplexType struct {
	Name     string       `xml:"name,attr"`
	Sequence *xsdSequence `xml:"http://www.w3.org/2001/XMLSchema sequence"`
	Choice   *xsdChoice   `xml:"http://www.w3.org/2001/XMLSchema choice"`
}

type xsdSequence struct {
	Elements []xsdElement `xml:"http://www.w3.org/2001/XMLSchema element"`
	Choices  []xsdChoice  `xml:"http://www.w3.org/2001/XMLSchema choice"`
}

type xsdChoice struct {
	MinOccurs string       `xml:"minOccurs,attr"`
	Elements  []xsdElement `xml:"http://www.w3.org/2001/XMLSchema element"`
}

type xsdSimpleType struct {
	Name        string          `xml:"name,attr"`
	Restriction *xsdRestriction `xml:"http://www.w3.org/2001/XMLSchema restriction"`
}

type xsdRestriction struct {
	Base         string `xml:"base,attr"`
	Enumerations []struct {
		Value string `xml:"value,attr"`
	} `xml:"http://www.w3.org/2001/XMLSchema enumeration"`
}

// ---- resolution ----

type resolver struct {
	version string
	doc     *xsdDoc
}

func (r *resolver) fail(reason string) error {
	return &ParseError{Version: r.version, Reason: reason}
}

// element builds the FieldSpec for one xsd:element. stack carries the named
// types on the current resolution path to reject recursive definitions.
func (r *resolver) element(el *xsdElement, stack []string) (*FieldSpec, error) {
	if el.Name == "" {
		return nil, r.fail("element without a name")
	}
	f := &FieldSpec{
		Name:     el.Name,
		Required: el.MinOccurs != "0",
		Repeated: el.MaxOccurs == "unbounded" || occursMoreThanOne(el.MaxOccurs),
	}
	if el.Default != "" {
		f.HasDefault = true
		f.Default = el.Default
	}

	switch {
	case el.ComplexType != nil:
		if el.Type != "" {
			return nil, r.fail(fmt.Sprintf("element %q has both a type reference and an inline type", el.Name))
		}
		f.Kind = KindObject
		if err := r.complexInto(f, el.ComplexType, stack); err != nil {
			return nil, err
		}
	case el.SimpleType != nil:
		if err := r.simpleInto(f, el.SimpleType); err != nil {
			return nil, err
		}
	case el.Type != "":
		if err := r.typeRef(f, el.Type, stack); err != nil {
			return nil, err
		}
	default:
		// No type information at all: treat as a bare string leaf, which is
		// how AXL models empty tag-only elements.
		f.Kind = KindString
	}
	return f, nil
}

func (r *resolver) typeRef(f *FieldSpec, ref string, stack []string) error {
	local := ref
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		local = ref[i+1:]
	}
	if isXSDBuiltin(ref, local) {
		k, _ := primitiveKind(local)
		f.Kind = k
		return nil
	}
	for i := range stack {
		if stack[i] == local {
			return r.fail(fmt.Sprintf("recursive type %q on %q", local, f.Name))
		}
	}
	if ct := r.findComplexType(local); ct != nil {
		f.Kind = KindObject
		return r.complexInto(f, ct, append(stack, local))
	}
	if st := r.findSimpleType(local); st != nil {
		return r.simpleInto(f, st)
	}
	return r.fail(fmt.Sprintf("unresolved type %q on %q", ref, f.Name))
}

func (r *resolver) complexInto(f *FieldSpec, ct *xsdComplexType, stack []string) error {
	f.Kind = KindObject
	switch {
	case ct.Sequence != nil:
		for i := range ct.Sequence.Elements {
			c, err := r.element(&ct.Sequence.Elements[i], stack)
			if err != nil {
				return err
			}
			if err := r.addChild(f, c); err != nil {
				return err
			}
		}
		for i := range ct.Sequence.Choices {
			c, err := r.choice(&ct.Sequence.Choices[i], stack)
			if err != nil {
				return err
			}
			f.Children = append(f.Children, c)
		}
	case ct.Choice != nil:
		c, err := r.choice(ct.Choice, stack)
		if err != nil {
			return err
		}
		f.Children = append(f.Children, c)
	default:
		// Empty complex type: an object with no declared children.
	}
	return nil
}

func (r *resolver) choice(ch *xsdChoice, stack []string) (*FieldSpec, error) {
	if len(ch.Elements) == 0 {
		return nil, r.fail("choice group with no members")
	}
	c := &FieldSpec{Kind: KindChoice, Required: ch.MinOccurs != "0"}
	for i := range ch.Elements {
		m, err := r.element(&ch.Elements[i], stack)
		if err != nil {
			return nil, err
		}
		// Choice members are individually optional; exclusivity is enforced
		// at the group level.
		m.Required = false
		if err := r.addChild(c, m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (r *resolver) simpleInto(f *FieldSpec, st *xsdSimpleType) error {
	if st.Restriction == nil {
		return r.fail(fmt.Sprintf("simple type on %q without a restriction", f.Name))
	}
	base := st.Restriction.Base
	local := base
	if i := strings.IndexByte(base, ':'); i >= 0 {
		local = base[i+1:]
	}
	k, ok := primitiveKind(local)
	if !ok {
		return r.fail(fmt.Sprintf("unsupported restriction base %q on %q", base, f.Name))
	}
	if len(st.Restriction.Enumerations) > 0 {
		f.Kind = KindEnum
		f.Enum = make([]string, 0, len(st.Restriction.Enumerations))
		for _, e := range st.Restriction.Enumerations {
			f.Enum = append(f.Enum, e.Value)
		}
		return nil
	}
	f.Kind = k
	return nil
}

func (r *resolver) addChild(parent, c *FieldSpec) error {
	for _, existing := range parent.Children {
		if existing.Name == c.Name && c.Name != "" {
			return r.fail(fmt.Sprintf("duplicate field %q under %q", c.Name, parent.Name))
		}
	}
	parent.Children = append(parent.Children, c)
	return nil
}

func (r *resolver) findComplexType(name string) *xsdComplexType {
	for i := range r.doc.ComplexTypes {
		if r.doc.ComplexTypes[i].Name == name {
			return &r.doc.ComplexTypes[i]
		}
	}
	return nil
}

func (r *resolver) findSimpleType(name string) *xsdSimpleType {
	for i := range r.doc.SimpleTypes {
		if r.doc.SimpleTypes[i].Name == name {
			return &r.doc.SimpleTypes[i]
		}
	}
	return nil
}

func primitiveKind(local string) (Kind, bool) {
	switch local {
	case "string", "anySimpleType", "token", "normalizedString":
		return KindString, true
	case "boolean":
		return KindBool, true
	case "int", "integer", "long", "short", "byte", "unsignedInt", "unsignedLong", "nonNegativeInteger", "positiveInteger":
		return KindInteger, true
	case "decimal", "double", "float":
		return KindDecimal, true
	case "dateTime", "date", "time":
		return KindDateTime, true
	}
	return KindString, false
}

// isXSDBuiltin reports whether ref names an XML Schema built-in regardless of
// the prefix the document bound to the XSD namespace.
func isXSDBuiltin(ref, local string) bool {
	_, ok := primitiveKind(local)
	if !ok {
		return false
	}
	// AXL schemas bind the XSD namespace to "xsd"; accept "xs" as well.
	return strings.HasPrefix(ref, "xsd:") || strings.HasPrefix(ref, "xs:")
}

func occursMoreThanOne(maxOccurs string) bool {
	if maxOccurs == "" || maxOccurs == "1" {
		return false
	}
	n := 0
	for _, c := range maxOccurs {
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
		if n > 1 {
			return true
		}
	}
	return n > 1
}
