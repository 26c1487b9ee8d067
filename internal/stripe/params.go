package stripe

import (
	"net/url"
	"sort"
	"strings"
)

// Params is an ordered list of form fields encoded with Stripe's bracket
// notation, e.g. metadata[orderId] or payment_method_types[0]. Keeping the
// pairs ordered keeps wire-format concerns out of the orchestration logic
// and makes request bodies reproducible in tests.
type Params struct {
	pairs []paramPair
}

type paramPair struct {
	key   string
	value string
}

func NewParams() *Params {
	return &Params{}
}

// Add appends a single field. Keys keep their insertion order.
func (p *Params) Add(key, value string) *Params {
	p.pairs = append(p.pairs, paramPair{key: key, value: value})
	return p
}

// AddMetadata appends metadata[<key>] fields in sorted key order so the
// encoded body is stable regardless of map iteration order.
func (p *Params) AddMetadata(metadata map[string]string) *Params {
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p.Add("metadata["+key+"]", metadata[key])
	}
	return p
}

func (p *Params) Len() int {
	return len(p.pairs)
}

// Encode renders the application/x-www-form-urlencoded body.
func (p *Params) Encode() string {
	var b strings.Builder
	for i, pair := range p.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(pair.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pair.value))
	}
	return b.String()
}
