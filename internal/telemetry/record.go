// Package telemetry turns decoded camera telemetry into timed overlay samples.
package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoData is returned when a decoded document lacks the top-level data key.
var ErrNoData = errors.New("telemetry document has no data key")

// Record is one decoded sample: field name to numeric value.
type Record map[string]float64

// Document is the decoder output, one record per metadata sample tick.
type Document struct {
	Data []Record
}

// Fields returns the number of records that carry each field.
func (d Document) Fields() map[string]int {
	counts := make(map[string]int)
	for _, r := range d.Data {
		for k := range r {
			counts[k]++
		}
	}
	return counts
}

// ParseDocument decodes a telemetry document. Null and non-numeric values
// are dropped from their record; everything else is kept in order.
func ParseDocument(r io.Reader) (Document, error) {
	var raw struct {
		Data *[]map[string]json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("failed to parse telemetry JSON: %w", err)
	}
	if raw.Data == nil {
		return Document{}, ErrNoData
	}

	doc := Document{Data: make([]Record, 0, len(*raw.Data))}
	for _, fields := range *raw.Data {
		rec := make(Record, len(fields))
		for name, value := range fields {
			if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
				continue
			}
			var v float64
			if err := json.Unmarshal(value, &v); err == nil {
				rec[name] = v
			}
		}
		doc.Data = append(doc.Data, rec)
	}
	return doc, nil
}

// LoadDocument reads and parses the telemetry document at path.
func LoadDocument(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open telemetry document: %w", err)
	}
	defer f.Close()

	return ParseDocument(f)
}
