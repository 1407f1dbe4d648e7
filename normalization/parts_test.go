package normalization

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/jonwraymond/normcache/cacheability"
)

func articleParts() Parts {
	return Parts{
		Base: json.RawMessage(`{"type":"node--article","id":"42"}`),
		Fields: map[string]Part{
			"title": {
				Data:         json.RawMessage(`"Hi"`),
				Cacheability: cacheability.New([]string{"node:42"}, nil, cacheability.Permanent),
			},
			"body": {
				Data:         json.RawMessage(`"..."`),
				Cacheability: cacheability.New([]string{"node:42", "filter:basic"}, []string{"user.permissions"}, 3600),
			},
		},
	}
}

func TestParts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		parts   Parts
		wantErr bool
	}{
		{"complete", articleParts(), false},
		{"empty fields", Parts{Base: json.RawMessage(`{}`), Fields: map[string]Part{}}, false},
		{"missing fields", Parts{Base: json.RawMessage(`{}`)}, true},
		{"missing base", Parts{Fields: map[string]Part{}}, true},
		{"missing both", Parts{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parts.Validate()
			if tt.wantErr && !errors.Is(err, ErrMalformedParts) {
				t.Errorf("Validate() = %v, want ErrMalformedParts", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestMergeFields(t *testing.T) {
	got := MergeFields(articleParts().Fields)
	want := cacheability.New([]string{"node:42", "filter:basic"}, []string{"user.permissions"}, 3600)
	if !got.Equal(want) {
		t.Errorf("MergeFields() = %v, want %v", got, want)
	}

	if empty := MergeFields(nil); !empty.Equal(cacheability.Metadata{}) || empty.MaxAge() != cacheability.Permanent {
		t.Errorf("MergeFields(nil) = %v, want identity", empty)
	}
}

func TestParts_FieldNames(t *testing.T) {
	if got, want := articleParts().FieldNames(), []string{"body", "title"}; !slices.Equal(got, want) {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}
}

func TestParts_Equal(t *testing.T) {
	a, b := articleParts(), articleParts()
	if !a.Equal(b) {
		t.Fatal("identical parts should be equal")
	}

	b.Fields["title"] = Part{Data: json.RawMessage(`"Bye"`)}
	if a.Equal(b) {
		t.Error("parts with different field data should differ")
	}

	c := articleParts()
	c.Base = json.RawMessage(`{"type":"node--page","id":"42"}`)
	if a.Equal(c) {
		t.Error("parts with different base should differ")
	}
}

func TestDecode(t *testing.T) {
	data, err := json.Marshal(articleParts())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	parts, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !parts.Equal(articleParts()) {
		t.Errorf("Decode() = %+v, want article parts", parts)
	}
}

func TestDecode_RejectsWrongShape(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing fields", `{"base":{}}`},
		{"missing base", `{"fields":{}}`},
		{"extra key", `{"base":{},"fields":{},"links":{}}`},
		{"null fields", `{"base":{},"fields":null}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if !errors.Is(err, ErrMalformedParts) {
				t.Errorf("Decode(%s) = %v, want ErrMalformedParts", tt.data, err)
			}
		})
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`{`))
	if err == nil {
		t.Fatal("Decode should fail on invalid JSON")
	}
	if errors.Is(err, ErrMalformedParts) {
		t.Error("syntax errors should not be reported as malformed shape")
	}
}
