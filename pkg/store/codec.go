package store

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/trigodb/trigo/pkg/rdf"
)

// MalformedKey is returned by DecodeQuad when an index key cannot be
// decoded: truncation, an unknown type tag, or a varint whose continuation
// bits shift past 63 bits without terminating.
var MalformedKey = errors.New("store: malformed key")

const (
	tagIRI          = 0
	tagLiteral      = 1
	tagBlankNode    = 2
	tagQuotedTriple = 3
	tagVariable     = 4
)

// encodeVarint appends v to buf as an unsigned LEB128 varint.
func encodeVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// decodeVarint reads an unsigned LEB128 varint from data starting at
// offset, returning the value and the offset just past it.
func decodeVarint(data []byte, offset int) (uint64, int, error) {
	var result uint64
	var shift uint
	for {
		if offset >= len(data) {
			return 0, 0, fmt.Errorf("%w: truncated varint", MalformedKey)
		}
		b := data[offset]
		offset++
		if shift >= 64 {
			return 0, 0, fmt.Errorf("%w: varint overflow", MalformedKey)
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result, offset, nil
}

func encodeBytesField(buf []byte, payload []byte) []byte {
	buf = encodeVarint(buf, uint64(len(payload)))
	return append(buf, payload...)
}

func decodeBytesField(data []byte, offset int) ([]byte, int, error) {
	n, offset, err := decodeVarint(data, offset)
	if err != nil {
		return nil, 0, err
	}
	end := offset + int(n)
	if end < offset || end > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated payload", MalformedKey)
	}
	return data[offset:end], end, nil
}

// encodeNode appends the canonical type_tag+length_varint+payload encoding
// of term to buf. term must not be nil or a Variable.
func encodeNode(buf []byte, term rdf.Term) ([]byte, error) {
	switch t := term.(type) {
	case *rdf.IRI:
		buf = append(buf, tagIRI)
		buf = encodeBytesField(buf, []byte(*t.Value))
		return buf, nil
	case *rdf.Literal:
		buf = append(buf, tagLiteral)
		buf = encodeBytesField(buf, []byte(*t.Value))
		if t.Language != nil {
			buf = append(buf, 1)
			buf = encodeBytesField(buf, []byte(*t.Language))
		} else {
			buf = append(buf, 0)
		}
		if t.Datatype != nil {
			buf = append(buf, 1)
			buf = encodeBytesField(buf, []byte(*t.Datatype.Value))
		} else {
			buf = append(buf, 0)
		}
		return buf, nil
	case *rdf.BlankNode:
		buf = append(buf, tagBlankNode)
		buf = encodeBytesField(buf, []byte(strconv.FormatUint(t.ID, 10)))
		return buf, nil
	case *rdf.QuotedTriple:
		buf = append(buf, tagQuotedTriple)
		buf = encodeBytesField(buf, []byte(t.String()))
		return buf, nil
	default:
		return nil, fmt.Errorf("store: cannot encode term of type %T into an index key", term)
	}
}

// decodeNode reads one node encoding from data at offset, interning any
// string payloads into dict, and returns the term and the offset past it.
func decodeNode(data []byte, offset int, dict *rdf.Dictionary) (rdf.Term, int, error) {
	if offset >= len(data) {
		return nil, 0, fmt.Errorf("%w: truncated node", MalformedKey)
	}
	tag := data[offset]
	offset++
	switch tag {
	case tagIRI:
		payload, next, err := decodeBytesField(data, offset)
		if err != nil {
			return nil, 0, err
		}
		return dict.NewIRI(string(payload)), next, nil
	case tagLiteral:
		value, next, err := decodeBytesField(data, offset)
		if err != nil {
			return nil, 0, err
		}
		offset = next
		if offset >= len(data) {
			return nil, 0, fmt.Errorf("%w: truncated literal language flag", MalformedKey)
		}
		langPresent := data[offset]
		offset++
		var lang []byte
		if langPresent == 1 {
			lang, offset, err = decodeBytesField(data, offset)
			if err != nil {
				return nil, 0, err
			}
		}
		if offset >= len(data) {
			return nil, 0, fmt.Errorf("%w: truncated literal datatype flag", MalformedKey)
		}
		dtPresent := data[offset]
		offset++
		var dt []byte
		if dtPresent == 1 {
			dt, offset, err = decodeBytesField(data, offset)
			if err != nil {
				return nil, 0, err
			}
		}
		lit := dict.NewLiteral(string(value))
		if langPresent == 1 {
			lit.Language = dict.Intern(string(lang))
		}
		if dtPresent == 1 {
			lit.Datatype = dict.NewIRI(string(dt))
		}
		return lit, offset, nil
	case tagBlankNode:
		payload, next, err := decodeBytesField(data, offset)
		if err != nil {
			return nil, 0, err
		}
		id, err := strconv.ParseUint(string(payload), 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: bad blank node id %q", MalformedKey, payload)
		}
		return &rdf.BlankNode{ID: id}, next, nil
	case tagQuotedTriple:
		// Quoted triples are stored opaquely (their String() form) solely
		// for ordering; decoding back to a structured QuotedTriple from
		// that form is not attempted by the codec.
		payload, _, err := decodeBytesField(data, offset)
		_ = payload
		if err != nil {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("store: decoding a quoted triple from its opaque key form is not supported")
	default:
		return nil, 0, fmt.Errorf("%w: unknown type tag %d", MalformedKey, tag)
	}
}

// encodeNodeOpt encodes the graph position: a one-byte presence flag,
// followed by the node encoding if present. A nil term (default graph)
// encodes as a single zero byte.
func encodeNodeOpt(buf []byte, term rdf.Term) ([]byte, error) {
	if term == nil {
		return append(buf, 0), nil
	}
	buf = append(buf, 1)
	return encodeNode(buf, term)
}

func decodeNodeOpt(data []byte, offset int, dict *rdf.Dictionary) (rdf.Term, int, error) {
	if offset >= len(data) {
		return nil, 0, fmt.Errorf("%w: truncated graph presence flag", MalformedKey)
	}
	present := data[offset]
	offset++
	if present == 0 {
		return nil, offset, nil
	}
	return decodeNode(data, offset, dict)
}

// fieldOrder returns, for a permutation, the order in which S, P, O, G are
// laid out in the key, as single-character codes.
func fieldOrder(perm Permutation) [4]byte {
	switch perm {
	case SPOC:
		return [4]byte{'S', 'P', 'O', 'G'}
	case POCS:
		return [4]byte{'P', 'O', 'G', 'S'}
	case OCSP:
		return [4]byte{'O', 'G', 'S', 'P'}
	case CSPO:
		return [4]byte{'G', 'S', 'P', 'O'}
	default:
		return [4]byte{'S', 'P', 'O', 'G'}
	}
}

// EncodeQuad encodes q into its index key for permutation perm.
func EncodeQuad(perm Permutation, q rdf.Quad) ([]byte, error) {
	buf := make([]byte, 0, 64)
	var err error
	for _, field := range fieldOrder(perm) {
		switch field {
		case 'S':
			buf, err = encodeNode(buf, q.Subject)
		case 'P':
			buf, err = encodeNode(buf, q.Predicate)
		case 'O':
			buf, err = encodeNode(buf, q.Object)
		case 'G':
			buf, err = encodeNodeOpt(buf, q.Graph)
		}
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// DecodeQuad decodes a full index key for permutation perm back into a
// Quad, interning strings into dict.
func DecodeQuad(perm Permutation, key []byte, dict *rdf.Dictionary) (rdf.Quad, error) {
	var q rdf.Quad
	offset := 0
	var err error
	for _, field := range fieldOrder(perm) {
		var term rdf.Term
		switch field {
		case 'G':
			term, offset, err = decodeNodeOpt(key, offset, dict)
		default:
			term, offset, err = decodeNode(key, offset, dict)
		}
		if err != nil {
			return rdf.Quad{}, err
		}
		switch field {
		case 'S':
			q.Subject = term
		case 'P':
			q.Predicate = term
		case 'O':
			q.Object = term
		case 'G':
			q.Graph = term
		}
	}
	return q, nil
}

// Pattern names a quad position as either a concrete term, an explicit
// default-graph constraint (Graph == nil), or a wildcard. A position is a
// wildcard iff it is nil (Subject/Predicate/Object) or an *rdf.Variable
// (any position, including Graph — use nil for Graph to mean "default
// graph" specifically).
type Pattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
	Graph     rdf.Term
	GraphSet  bool // true if Graph position participates (false = wildcard over graph)
}

func isWildcard(t rdf.Term) bool {
	return t == nil || rdf.IsVariable(t)
}

// EncodePrefix concatenates the encodings of pat's leading concrete
// positions in perm's field order, stopping at the first wildcard.
func EncodePrefix(perm Permutation, pat Pattern) ([]byte, error) {
	buf := make([]byte, 0, 64)
	var err error
	for _, field := range fieldOrder(perm) {
		switch field {
		case 'S':
			if isWildcard(pat.Subject) {
				return buf, nil
			}
			buf, err = encodeNode(buf, pat.Subject)
		case 'P':
			if isWildcard(pat.Predicate) {
				return buf, nil
			}
			buf, err = encodeNode(buf, pat.Predicate)
		case 'O':
			if isWildcard(pat.Object) {
				return buf, nil
			}
			buf, err = encodeNode(buf, pat.Object)
		case 'G':
			if !pat.GraphSet || rdf.IsVariable(pat.Graph) {
				return buf, nil
			}
			buf, err = encodeNodeOpt(buf, pat.Graph)
		}
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Matches reports whether q satisfies pat's bound positions.
func Matches(pat Pattern, q rdf.Quad) bool {
	if !isWildcard(pat.Subject) && !pat.Subject.Equals(q.Subject) {
		return false
	}
	if !isWildcard(pat.Predicate) && !pat.Predicate.Equals(q.Predicate) {
		return false
	}
	if !isWildcard(pat.Object) && !pat.Object.Equals(q.Object) {
		return false
	}
	if pat.GraphSet {
		if pat.Graph == nil {
			if q.Graph != nil {
				return false
			}
		} else if isWildcard(pat.Graph) {
			// wildcard Graph that is still "set" (an explicit ?g variable)
			// matches anything; fall through.
		} else if q.Graph == nil || !pat.Graph.Equals(q.Graph) {
			return false
		}
	}
	return true
}
