package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	NotesKey        = "notes"
	ExternalLinkKey = "external_link"
)

// Details is the label/value table of a product page. Keys keep insertion
// order so the encoded JSON reads in page order. Values are strings, except
// the notes entry which is a list.
type Details struct {
	keys   []string
	values map[string]any
}

func (d *Details) put(key string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Set stores a label. Re-setting an existing label keeps its position.
func (d *Details) Set(label, value string) {
	d.put(label, value)
}

// AddNote appends a colon-free line to the notes list, creating it on first use.
func (d *Details) AddNote(text string) {
	notes, _ := d.values[NotesKey].([]string)
	d.put(NotesKey, append(notes, text))
}

func (d *Details) SetExternalLink(href string) {
	d.put(ExternalLinkKey, href)
}

// Get returns a string-valued label.
func (d Details) Get(label string) (string, bool) {
	v, ok := d.values[label].(string)
	return v, ok
}

func (d Details) Notes() []string {
	notes, _ := d.values[NotesKey].([]string)
	return notes
}

func (d Details) ExternalLink() string {
	link, _ := d.values[ExternalLinkKey].(string)
	return link
}

// Keys returns the labels in insertion order.
func (d Details) Keys() []string {
	return append([]string(nil), d.keys...)
}

func (d Details) Len() int {
	return len(d.keys)
}

func (d Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalNoEscape(key)
		if err != nil {
			return nil, err
		}
		v, err := marshalNoEscape(d.values[key])
		if err != nil {
			return nil, fmt.Errorf("details %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Details) UnmarshalJSON(data []byte) error {
	*d = Details{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("details: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("details: unexpected key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("details %q: %w", key, err)
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			d.put(key, s)
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			d.put(key, list)
			continue
		}
		// Numbers and other scalars are kept in their literal form.
		d.put(key, string(bytes.TrimSpace(raw)))
	}

	_, err = dec.Token()
	return err
}

// marshalNoEscape encodes v without escaping <, > and &.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
