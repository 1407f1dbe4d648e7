package cacheability

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func TestMetadata_ZeroValueIsIdentity(t *testing.T) {
	var zero Metadata
	if zero.MaxAge() != Permanent {
		t.Errorf("zero MaxAge() = %d, want %d", zero.MaxAge(), Permanent)
	}
	if len(zero.Tags()) != 0 || len(zero.Contexts()) != 0 {
		t.Errorf("zero value should carry no tags or contexts, got %v", zero)
	}

	m := New([]string{"node:1"}, []string{"url"}, 60)
	if got := zero.Merge(m); !got.Equal(m) {
		t.Errorf("zero.Merge(m) = %v, want %v", got, m)
	}
	if got := m.Merge(zero); !got.Equal(m) {
		t.Errorf("m.Merge(zero) = %v, want %v", got, m)
	}
}

func TestNew_NormalizesSets(t *testing.T) {
	m := New([]string{"b", "a", "b", ""}, []string{"user", "url", "user"}, -5)

	if got, want := m.Tags(), []string{"a", "b"}; !slices.Equal(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
	if got, want := m.Contexts(), []string{"url", "user"}; !slices.Equal(got, want) {
		t.Errorf("Contexts() = %v, want %v", got, want)
	}
	if m.MaxAge() != Permanent {
		t.Errorf("negative max-age should be permanent, got %d", m.MaxAge())
	}
}

func TestMetadata_TagsReturnsCopy(t *testing.T) {
	m := New([]string{"a"}, nil, Permanent)
	tags := m.Tags()
	tags[0] = "mutated"
	if m.Tags()[0] != "a" {
		t.Error("mutating Tags() result must not affect metadata")
	}
}

func TestMerge_MaxAgeDominance(t *testing.T) {
	tests := []struct {
		name string
		a, b int
		want int
	}{
		{"uncacheable beats permanent", 0, Permanent, 0},
		{"permanent with permanent", Permanent, Permanent, Permanent},
		{"finite beats permanent", 300, Permanent, 300},
		{"permanent yields to finite", Permanent, 300, 300},
		{"smaller finite wins", 300, 100, 100},
		{"uncacheable beats finite", 300, 0, 0},
		{"uncacheable with uncacheable", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(nil, nil, tt.a).Merge(New(nil, nil, tt.b)).MaxAge()
			if got != tt.want {
				t.Errorf("merge(%d, %d).MaxAge() = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMerge_CommutativeAndAssociative(t *testing.T) {
	samples := []Metadata{
		{},
		Uncacheable(),
		New([]string{"node:1"}, nil, Permanent),
		New([]string{"node:2", "user:7"}, []string{"user.permissions"}, 3600),
		New(nil, []string{"url.query_args:fields", "languages"}, 60),
		New([]string{"node:1", "config:filter"}, []string{"languages"}, 0),
	}

	for i, a := range samples {
		for j, b := range samples {
			if !a.Merge(b).Equal(b.Merge(a)) {
				t.Errorf("merge not commutative for samples %d, %d", i, j)
			}
			for k, c := range samples {
				left := a.Merge(b).Merge(c)
				right := a.Merge(b.Merge(c))
				if !left.Equal(right) {
					t.Errorf("merge not associative for samples %d, %d, %d: %v != %v", i, j, k, left, right)
				}
			}
		}
	}
}

func TestMergeAll_ArticleScenario(t *testing.T) {
	object := New([]string{"node:42"}, nil, Permanent)
	title := New([]string{"node:42"}, nil, Permanent)
	body := New([]string{"node:42", "filter:basic"}, []string{"user.permissions"}, 3600)

	got := MergeAll(object, title, body)
	want := New([]string{"node:42", "filter:basic"}, []string{"user.permissions"}, 3600)
	if !got.Equal(want) {
		t.Errorf("MergeAll() = %v, want %v", got, want)
	}
}

func TestMergeAll_Empty(t *testing.T) {
	if got := MergeAll(); !got.Equal(Metadata{}) {
		t.Errorf("MergeAll() = %v, want identity", got)
	}
}

type dependency struct{ meta Metadata }

func (d dependency) Cacheability() Metadata { return d.meta }

func TestFromObject(t *testing.T) {
	meta := New([]string{"node:5"}, []string{"languages"}, 120)
	if got := FromObject(dependency{meta: meta}); !got.Equal(meta) {
		t.Errorf("FromObject(dependency) = %v, want %v", got, meta)
	}

	got := FromObject(struct{}{})
	if got.MaxAge() != 0 || got.IsCacheable() {
		t.Errorf("FromObject(non-dependency) = %v, want uncacheable", got)
	}
}

func TestIsCacheable(t *testing.T) {
	if !(Metadata{}).IsCacheable() {
		t.Error("permanent metadata should be cacheable")
	}
	if !New(nil, nil, 1).IsCacheable() {
		t.Error("max-age 1 should be cacheable")
	}
	if Uncacheable().IsCacheable() {
		t.Error("max-age 0 should not be cacheable")
	}
}

func TestMetadata_JSON(t *testing.T) {
	m := New([]string{"node:1"}, []string{"user"}, 30)
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"tags":["node:1"],"contexts":["user"],"max_age":30}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var decoded Metadata
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.Equal(m) {
		t.Errorf("decoded = %v, want %v", decoded, m)
	}
}

func TestMetadata_UnmarshalDefaultsAndErrors(t *testing.T) {
	var m Metadata
	if err := json.Unmarshal([]byte(`{"tags":["a"]}`), &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if m.MaxAge() != Permanent {
		t.Errorf("missing max_age should decode as permanent, got %d", m.MaxAge())
	}

	err := json.Unmarshal([]byte(`{"max_age":-2}`), &m)
	if !errors.Is(err, ErrInvalidMaxAge) {
		t.Errorf("Unmarshal(max_age=-2) error = %v, want ErrInvalidMaxAge", err)
	}
}
