package payfast

import (
	"bytes"
	"net/url"
	"strings"
)

// Field names the ITN flow reads. Lookups are case-insensitive.
const (
	FieldMerchantID    = "merchant_id"
	FieldPaymentStatus = "payment_status"
	FieldMPaymentID    = "m_payment_id"
	FieldPFPaymentID   = "pf_payment_id"
	FieldSignature     = "signature"
)

// Field is one name/value pair of a callback body.
type Field struct {
	Name  string
	Value string
}

// Payload is a decoded callback body. Field order is the order received,
// which the gateway requires when the data is posted back for validation.
type Payload struct {
	fields []Field
}

// Decode parses an application/x-www-form-urlencoded body. It never fails:
// a pair whose escapes cannot be decoded keeps its raw text.
func Decode(body []byte) Payload {
	var fields []Field
	for _, pair := range bytes.Split(body, []byte("&")) {
		if len(pair) == 0 {
			continue
		}
		name, value, _ := strings.Cut(string(pair), "=")
		fields = append(fields, Field{Name: unescape(name), Value: unescape(value)})
	}
	return Payload{fields: fields}
}

func unescape(s string) string {
	u, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return u
}

// NewPayload builds a payload from fields in the given order.
func NewPayload(fields ...Field) Payload {
	return Payload{fields: append([]Field(nil), fields...)}
}

// Get returns the value of the first field whose name matches name
// case-insensitively.
func (p Payload) Get(name string) string {
	for _, f := range p.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Fields returns a copy of the fields in received order.
func (p Payload) Fields() []Field {
	return append([]Field(nil), p.fields...)
}

func (p Payload) Len() int { return len(p.fields) }

// WithoutSignature returns a copy with every signature field removed.
func (p Payload) WithoutSignature() Payload {
	fields := make([]Field, 0, len(p.fields))
	for _, f := range p.fields {
		if strings.EqualFold(f.Name, FieldSignature) {
			continue
		}
		fields = append(fields, f)
	}
	return Payload{fields: fields}
}

// Encode form-encodes the payload keeping field order.
func (p Payload) Encode() string {
	var sb strings.Builder
	for i, f := range p.fields {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(f.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(f.Value))
	}
	return sb.String()
}

// Map flattens the payload for storage. Later duplicates win.
func (p Payload) Map() map[string]string {
	m := make(map[string]string, len(p.fields))
	for _, f := range p.fields {
		m[f.Name] = f.Value
	}
	return m
}
