package rdf

import (
	"fmt"
	"strconv"
	"strings"
)

// TermKind discriminates the variants of Term.
type TermKind int

const (
	KindIRI TermKind = iota
	KindLiteral
	KindBlankNode
	KindQuotedTriple
	KindVariable
)

// Term is the tagged union described by the data model: IRI, Literal,
// BlankNode, QuotedTriple, or Variable.
type Term interface {
	Kind() TermKind
	String() string
	Equals(other Term) bool
	// Less gives a stable total order, used for trie/binding ordering: by
	// Kind first, then by the variant's own content (string comparison of
	// values, numeric comparison of blank node ids). It does not follow the
	// key codec's byte order, which puts a length prefix before each payload.
	Less(other Term) bool
}

// IRI is a borrowed reference to interned bytes; equality is by pointer.
type IRI struct {
	Value Ref
}

func (t *IRI) Kind() TermKind { return KindIRI }
func (t *IRI) String() string { return "<" + *t.Value + ">" }
func (t *IRI) Equals(other Term) bool {
	o, ok := other.(*IRI)
	return ok && o.Value == t.Value
}
func (t *IRI) Less(other Term) bool {
	if o, ok := other.(*IRI); ok {
		return *t.Value < *o.Value
	}
	return t.Kind() < other.Kind()
}

// Literal is (lexical value, optional language tag, optional datatype); at
// most one of Language and Datatype is set.
type Literal struct {
	Value    Ref
	Language Ref  // nil if untagged
	Datatype *IRI // nil means implicit xsd:string (or rdf:langString if Language set)
}

func (t *Literal) Kind() TermKind { return KindLiteral }

func (t *Literal) String() string {
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(*t.Value)
	b.WriteByte('"')
	if t.Language != nil {
		b.WriteByte('@')
		b.WriteString(*t.Language)
	} else if t.Datatype != nil {
		b.WriteString("^^")
		b.WriteString(t.Datatype.String())
	}
	return b.String()
}

func (t *Literal) Equals(other Term) bool {
	o, ok := other.(*Literal)
	if !ok {
		return false
	}
	if t.Value != o.Value {
		return false
	}
	if (t.Language == nil) != (o.Language == nil) {
		return false
	}
	if t.Language != nil && t.Language != o.Language {
		return false
	}
	if (t.Datatype == nil) != (o.Datatype == nil) {
		return false
	}
	if t.Datatype != nil && !t.Datatype.Equals(o.Datatype) {
		return false
	}
	return true
}

func (t *Literal) Less(other Term) bool {
	o, ok := other.(*Literal)
	if !ok {
		return t.Kind() < other.Kind()
	}
	if *t.Value != *o.Value {
		return *t.Value < *o.Value
	}
	tl, ol := "", ""
	if t.Language != nil {
		tl = *t.Language
	}
	if o.Language != nil {
		ol = *o.Language
	}
	if tl != ol {
		return tl < ol
	}
	td, od := "", ""
	if t.Datatype != nil {
		td = *t.Datatype.Value
	}
	if o.Datatype != nil {
		od = *o.Datatype.Value
	}
	return td < od
}

// BlankNode is a 64-bit integer scoped to the dictionary that issued it.
type BlankNode struct {
	ID uint64
}

func (t *BlankNode) Kind() TermKind { return KindBlankNode }
func (t *BlankNode) String() string { return "_:b" + strconv.FormatUint(t.ID, 10) }
func (t *BlankNode) Equals(other Term) bool {
	o, ok := other.(*BlankNode)
	return ok && o.ID == t.ID
}
func (t *BlankNode) Less(other Term) bool {
	if o, ok := other.(*BlankNode); ok {
		return t.ID < o.ID
	}
	return t.Kind() < other.Kind()
}

// QuotedTriple is an owning box of a Triple, for RDF-star.
type QuotedTriple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func (t *QuotedTriple) Kind() TermKind { return KindQuotedTriple }
func (t *QuotedTriple) String() string {
	return "<< " + t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " >>"
}
func (t *QuotedTriple) Equals(other Term) bool {
	o, ok := other.(*QuotedTriple)
	return ok && t.Subject.Equals(o.Subject) && t.Predicate.Equals(o.Predicate) && t.Object.Equals(o.Object)
}
func (t *QuotedTriple) Less(other Term) bool {
	o, ok := other.(*QuotedTriple)
	if !ok {
		return t.Kind() < other.Kind()
	}
	return t.String() < o.String()
}

// Variable is SPARQL-only and is never stored.
type Variable struct {
	Name Ref
}

func (t *Variable) Kind() TermKind { return KindVariable }
func (t *Variable) String() string { return "?" + *t.Name }
func (t *Variable) Equals(other Term) bool {
	o, ok := other.(*Variable)
	return ok && o.Name == t.Name
}
func (t *Variable) Less(other Term) bool {
	if o, ok := other.(*Variable); ok {
		return *t.Name < *o.Name
	}
	return t.Kind() < other.Kind()
}

// IsVariable reports whether term is a Variable (a wildcard on the wire to
// the store).
func IsVariable(t Term) bool {
	_, ok := t.(*Variable)
	return ok
}

// Triple is (subject, predicate, object).
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Quad is a Triple plus an optional graph. Graph == nil means the default
// graph.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term // nil => default graph
}

func (q Quad) Triple() Triple {
	return Triple{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object}
}

func (q Quad) String() string {
	g := "DEFAULT"
	if q.Graph != nil {
		g = q.Graph.String()
	}
	return fmt.Sprintf("%s %s %s %s", q.Subject, q.Predicate, q.Object, g)
}

// Dictionary convenience constructors. Every Term produced through these is
// bound to d: Refs are interned into d, so terms built by different calls
// for equal content compare pointer-equal, and terms built from different
// Dictionaries never accidentally compare equal.

func (d *Dictionary) NewIRI(iri string) *IRI {
	return &IRI{Value: d.Intern(iri)}
}

func (d *Dictionary) NewVariable(name string) *Variable {
	return &Variable{Name: d.Intern(name)}
}

// NewBlankNode returns the blank node named by id if id parses as a decimal
// uint64 (the common fast path for ids minted by this dictionary's own
// FreshBlank); otherwise it mints a fresh id for this never-seen label.
func (d *Dictionary) NewBlankNode(id string) *BlankNode {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return &BlankNode{ID: d.FreshBlank()}
	}
	return &BlankNode{ID: n}
}

func (d *Dictionary) FreshBlankNode() *BlankNode {
	return &BlankNode{ID: d.FreshBlank()}
}

func (d *Dictionary) NewLiteral(value string) *Literal {
	return &Literal{Value: d.Intern(value)}
}

func (d *Dictionary) NewLangLiteral(value, lang string) *Literal {
	return &Literal{Value: d.Intern(value), Language: d.Intern(lang)}
}

func (d *Dictionary) NewLiteralWithDatatype(value string, datatype *IRI) *Literal {
	return &Literal{Value: d.Intern(value), Datatype: datatype}
}

func (d *Dictionary) NewIntegerLiteral(v int64) *Literal {
	return d.NewLiteralWithDatatype(strconv.FormatInt(v, 10), d.NewIRI(XSDInteger))
}

func (d *Dictionary) NewDoubleLiteral(v float64) *Literal {
	return d.NewLiteralWithDatatype(strconv.FormatFloat(v, 'E', -1, 64), d.NewIRI(XSDDouble))
}

func (d *Dictionary) NewDecimalLiteral(v string) *Literal {
	return d.NewLiteralWithDatatype(v, d.NewIRI(XSDDecimal))
}

func (d *Dictionary) NewBooleanLiteral(v bool) *Literal {
	s := "false"
	if v {
		s = "true"
	}
	return d.NewLiteralWithDatatype(s, d.NewIRI(XSDBoolean))
}

func (d *Dictionary) NewQuotedTriple(s, p, o Term) (*QuotedTriple, error) {
	switch s.Kind() {
	case KindIRI, KindBlankNode, KindQuotedTriple:
	default:
		return nil, fmt.Errorf("rdf: quoted triple subject must be IRI, BlankNode or QuotedTriple, got %T", s)
	}
	if p.Kind() != KindIRI {
		return nil, fmt.Errorf("rdf: quoted triple predicate must be IRI, got %T", p)
	}
	switch o.Kind() {
	case KindIRI, KindLiteral, KindBlankNode, KindQuotedTriple:
	default:
		return nil, fmt.Errorf("rdf: quoted triple object must be IRI, Literal, BlankNode or QuotedTriple, got %T", o)
	}
	return &QuotedTriple{Subject: s, Predicate: p, Object: o}, nil
}
