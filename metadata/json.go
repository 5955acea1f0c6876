package metadata

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Wire encodings. Tokens serialize as a JSON number (indexed) or string
// (named); ComplexType values serialize as their compact grammar string.
// The decoders additionally accept the structured object forms that mirror
// the tagged-union fields directly, so documents produced without the
// compact converters still load.

// MarshalJSON implements json.Marshaler.
func (t Token) MarshalJSON() ([]byte, error) {
	if t.named {
		return json.Marshal(t.name)
	}
	return []byte(strconv.FormatInt(int64(t.index), 10)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Token) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errInvalidDataf("empty token value")
	}
	switch data[0] {
	case '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return wrapInvalidData("decoding token name", err)
		}
		tok, err := NamedToken(name)
		if err != nil {
			return errInvalidDataf("invalid token name %q", name)
		}
		*t = tok
		return nil
	case '{':
		var obj struct {
			Index *int32  `json:"Index"`
			Name  *string `json:"Name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return wrapInvalidData("decoding token object", err)
		}
		switch {
		case obj.Name != nil:
			tok, err := NamedToken(*obj.Name)
			if err != nil {
				return errInvalidDataf("invalid token name %q", *obj.Name)
			}
			*t = tok
		case obj.Index != nil:
			*t = IndexedToken(*obj.Index)
		default:
			return errInvalidDataf("token object has neither Index nor Name")
		}
		return nil
	default:
		n, err := strconv.ParseInt(string(data), 10, 32)
		if err != nil {
			return errInvalidDataf("invalid token index %s", data)
		}
		*t = IndexedToken(int32(n))
		return nil
	}
}

// complexTypeJSON mirrors the tagged-union fields for the structured form.
type complexTypeJSON struct {
	Kind  string        `json:"Kind"`
	Token *Token        `json:"Token,omitempty"`
	Value *int32        `json:"Value,omitempty"`
	Code  *byte         `json:"Code,omitempty"`
	Args  []ComplexType `json:"Args,omitempty"`
}

// MarshalJSON implements json.Marshaler using the compact string form.
func (c ComplexType) MarshalJSON() ([]byte, error) {
	s, err := Format(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// UnmarshalJSON implements json.Unmarshaler. Both the compact string form
// and the structured object form are accepted.
func (c *ComplexType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errInvalidDataf("empty complex type value")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return wrapInvalidData("decoding complex type string", err)
		}
		ct, err := Parse(s)
		if err != nil {
			return err
		}
		*c = ct
		return nil
	}
	var obj complexTypeJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return wrapInvalidData("decoding complex type object", err)
	}
	kind, ok := kindsByName[obj.Kind]
	if !ok {
		return errInvalidDataf("unknown complex type kind %q", obj.Kind)
	}
	out := ComplexType{Kind: kind, Args: normalizeArgs(obj.Args)}
	switch kind {
	case KindToken:
		if obj.Token == nil {
			return errInvalidDataf("Token node missing token")
		}
		out.Token = *obj.Token
	case KindInt32:
		if obj.Value == nil {
			return errInvalidDataf("Int32 node missing value")
		}
		out.Token = rawIndexToken(*obj.Value)
	case KindTypeSig, KindCallingConventionSig:
		if obj.Code == nil {
			return errInvalidDataf("%s node missing code", kind)
		}
		out.Code = *obj.Code
	}
	// Re-validate through the round trip so structured input obeys the
	// same shape rules as compact text.
	s, err := Format(out)
	if err != nil {
		return wrapInvalidData("malformed structured complex type", err)
	}
	ct, err := Parse(s)
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// OrderedMap is a string-keyed map that preserves insertion order through
// JSON. encoding/json's map type randomizes order; the facade's named-token
// sections need the original enumeration order to survive the wire.
type OrderedMap[V any] struct {
	keys []string
	vals map[string]V
}

// NewOrderedMap returns an empty ordered map.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{vals: make(map[string]V)}
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value bound to key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Set binds key to value, appending the key on first sight.
func (m *OrderedMap[V]) Set(key string, value V) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

// MarshalJSON writes the entries as a JSON object in insertion order.
func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, recording key order as it decodes.
func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return wrapInvalidData("decoding ordered map", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errInvalidDataf("ordered map value is not an object")
	}
	m.keys = nil
	m.vals = make(map[string]V)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return wrapInvalidData("decoding ordered map key", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return errInvalidDataf("ordered map key is not a string")
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return wrapInvalidData("decoding ordered map value", err)
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return wrapInvalidData("decoding ordered map end", err)
	}
	return nil
}
