package redisstore

import (
	"encoding/json"
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/jonwraymond/normcache/cache"
	"github.com/jonwraymond/normcache/cacheability"
	"github.com/jonwraymond/normcache/normalization"
)

// wireEntry is the stored form of a cache.Entry. Payloads are kept as
// []byte (base64 on the wire) so they come back byte for byte; encoded as
// raw JSON they would be compacted.
type wireEntry struct {
	Lookup       cache.Lookup          `json:"lookup"`
	Base         []byte                `json:"base"`
	Fields       map[string]wirePart   `json:"fields"`
	Cacheability cacheability.Metadata `json:"cacheability"`
}

type wirePart struct {
	Data         []byte                `json:"data"`
	Cacheability cacheability.Metadata `json:"cacheability"`
}

func toWire(e cache.Entry) *wireEntry {
	w := &wireEntry{
		Lookup:       e.Lookup,
		Base:         e.Data.Base,
		Cacheability: e.Cacheability,
	}
	if e.Data.Fields != nil {
		w.Fields = make(map[string]wirePart, len(e.Data.Fields))
		for name, p := range e.Data.Fields {
			w.Fields[name] = wirePart{Data: p.Data, Cacheability: p.Cacheability}
		}
	}
	return w
}

func (w *wireEntry) entry() cache.Entry {
	e := cache.Entry{
		Lookup:       w.Lookup,
		Data:         normalization.Parts{Base: json.RawMessage(w.Base)},
		Cacheability: w.Cacheability,
	}
	if w.Fields != nil {
		e.Data.Fields = make(map[string]normalization.Part, len(w.Fields))
		for name, p := range w.Fields {
			e.Data.Fields[name] = normalization.Part{Data: json.RawMessage(p.Data), Cacheability: p.Cacheability}
		}
	}
	return e
}

func encodeEntry(e cache.Entry) ([]byte, error) {
	b, err := gojson.Marshal(record{Entry: toWire(e)})
	if err != nil {
		return nil, fmt.Errorf("redisstore: encode entry: %w", err)
	}
	return b, nil
}

func decodeRecord(b []byte) (record, error) {
	var rec record
	if err := gojson.Unmarshal(b, &rec); err != nil {
		return record{}, fmt.Errorf("redisstore: decode record: %w", err)
	}
	if rec.Redirect == nil && rec.Entry == nil {
		return record{}, fmt.Errorf("redisstore: decode record: %w", cache.ErrInvalidEntry)
	}
	return rec, nil
}
