package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Product is one catalog record. Fields the catalog does not know about are kept
// verbatim in Extra and written back after the known ones.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Thumbnail   string  `json:"thumbnail"`
	Code        string  `json:"code"`
	Stock       float64 `json:"stock"`

	// Extra holds unknown fields, plus known fields whose stored value does not fit
	// the Go type (e.g. "price":"26"). An Extra entry under a known key is what
	// gets encoded for that key.
	Extra map[string]json.RawMessage `json:"-"`
}

const (
	fieldID          = "id"
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldPrice       = "price"
	fieldThumbnail   = "thumbnail"
	fieldCode        = "code"
	fieldStock       = "stock"
)

// fieldOrder is the encoding order of the known fields.
var fieldOrder = []string{
	fieldID, fieldTitle, fieldDescription, fieldPrice, fieldThumbnail, fieldCode, fieldStock,
}

var knownFields = map[string]struct{}{
	fieldID: {}, fieldTitle: {}, fieldDescription: {}, fieldPrice: {},
	fieldThumbnail: {}, fieldCode: {}, fieldStock: {},
}

var jsonNull = []byte("null")

func (p *Product) fieldPtrs() map[string]any {
	return map[string]any{
		fieldID:          &p.ID,
		fieldTitle:       &p.Title,
		fieldDescription: &p.Description,
		fieldPrice:       &p.Price,
		fieldThumbnail:   &p.Thumbnail,
		fieldCode:        &p.Code,
		fieldStock:       &p.Stock,
	}
}

func (p Product) MarshalJSON() ([]byte, error) {
	typed := p.fieldPtrs()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range fieldOrder {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, k); err != nil {
			return nil, err
		}
		if raw, ok := p.Extra[k]; ok {
			buf.Write(raw)
			continue
		}
		b, err := json.Marshal(typed[k])
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		if _, known := knownFields[k]; !known {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		buf.WriteByte(',')
		if err := writeKey(&buf, k); err != nil {
			return nil, err
		}
		buf.Write(p.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, k string) error {
	kb, err := json.Marshal(k)
	if err != nil {
		return err
	}
	buf.Write(kb)
	buf.WriteByte(':')
	return nil
}

// UnmarshalJSON matches known keys exactly (case-sensitive). Unknown keys, and known
// keys whose value does not decode into the field (null included), land in Extra.
func (p *Product) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("product: expected object, got %s", bytes.TrimSpace(b))
	}

	var out Product
	for key, dst := range out.fieldPtrs() {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if decodeField(key, v, dst) == nil {
			delete(raw, key)
		}
	}
	if len(raw) > 0 {
		out.Extra = raw
	}

	*p = out
	return nil
}

func decodeField(key string, v json.RawMessage, dst any) error {
	v = bytes.TrimSpace(v)
	if bytes.Equal(v, jsonNull) {
		return fmt.Errorf("field %q is null", key)
	}
	if key == fieldID {
		return decodeID(v, dst.(*int))
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	return nil
}

// decodeID accepts JSON numbers with an integral value, including forms like 1.0 or 1e2.
func decodeID(v json.RawMessage, dst *int) error {
	if len(v) == 0 || v[0] == '"' {
		return fmt.Errorf("field %q is not a number", fieldID)
	}

	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return fmt.Errorf("field %q: %w", fieldID, err)
	}
	if i, err := n.Int64(); err == nil {
		*dst = int(i)
		return nil
	}

	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactFloatInt {
		return fmt.Errorf("field %q: %s is not an integer", fieldID, n)
	}
	*dst = int(f)
	return nil
}

const maxExactFloatInt = 1 << 53

// missingFields lists the mandatory fields that are absent or falsy. A value kept raw
// in Extra counts when it is truthy: not null, false, 0 or "".
func (p Product) missingFields() []string {
	present := map[string]bool{
		fieldTitle:       p.Title != "",
		fieldDescription: p.Description != "",
		fieldPrice:       p.Price != 0,
		fieldThumbnail:   p.Thumbnail != "",
		fieldCode:        p.Code != "",
		fieldStock:       p.Stock != 0,
	}

	var missing []string
	for _, k := range fieldOrder[1:] {
		if present[k] {
			continue
		}
		if raw, ok := p.Extra[k]; ok && rawTruthy(raw) {
			continue
		}
		missing = append(missing, k)
	}
	return missing
}

func rawTruthy(v json.RawMessage) bool {
	var x any
	if err := json.Unmarshal(v, &x); err != nil {
		return false
	}
	switch t := x.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

// Patch is a shallow set of top-level fields to overwrite on a product.
type Patch map[string]json.RawMessage

// PatchOf builds a Patch from plain Go values.
func PatchOf(fields map[string]any) (Patch, error) {
	p := make(Patch, len(fields))
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("patch field %q: %w", k, err)
		}
		p[k] = b
	}
	return p, nil
}

// apply merges the patch over p and returns the result; p is left untouched. Known
// fields in the patch must decode into their Go type; null is rejected.
func (pt Patch) apply(p Product) (Product, error) {
	var scratch Product
	for key, dst := range scratch.fieldPtrs() {
		v, ok := pt[key]
		if !ok {
			continue
		}
		if err := decodeField(key, v, dst); err != nil {
			return Product{}, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
		}
	}

	b, err := json.Marshal(p)
	if err != nil {
		return Product{}, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return Product{}, err
	}
	for k, v := range pt {
		merged[k] = v
	}

	mb, err := json.Marshal(merged)
	if err != nil {
		return Product{}, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}

	var out Product
	if err := json.Unmarshal(mb, &out); err != nil {
		return Product{}, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	return out, nil
}
