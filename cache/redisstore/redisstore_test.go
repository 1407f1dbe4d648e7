package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/normcache/cache"
	"github.com/jonwraymond/normcache/cacheability"
	"github.com/jonwraymond/normcache/normalization"
)

func testEntry(lookup cache.Lookup, title string, meta cacheability.Metadata) cache.Entry {
	return cache.Entry{
		Lookup: lookup,
		Data: normalization.Parts{
			Base: json.RawMessage(`{"type":"node--article","id":"42"}`),
			Fields: map[string]normalization.Part{
				"title": {Data: json.RawMessage(`"` + title + `"`), Cacheability: meta},
			},
		},
		Cacheability: meta,
	}
}

func TestNew_NilClient(t *testing.T) {
	if _, err := New(nil, cache.DefaultPolicy()); !errors.Is(err, ErrNilClient) {
		t.Errorf("New(nil) error = %v, want ErrNilClient", err)
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	lookup := cache.Lookup{Key: cache.NewDefaultKeyer().Key("node--article", "42"), Bin: cache.DefaultBin}
	meta := cacheability.New([]string{"node:42"}, []string{"user.permissions"}, 3600)

	tests := []struct {
		name  string
		entry cache.Entry
	}{
		{"compact", testEntry(lookup, "Hi", meta)},
		{"formatted payloads", cache.Entry{
			Lookup: lookup,
			Data: normalization.Parts{
				Base: json.RawMessage("{\"type\": \"node\",\n  \"id\": \"42\"}"),
				Fields: map[string]normalization.Part{
					"title": {Data: json.RawMessage(`  "Hi"  `), Cacheability: meta},
					"body":  {Data: json.RawMessage("{ \"value\" : [1, 2] }"), Cacheability: meta},
				},
			},
			Cacheability: meta,
		}},
		{"no fields", cache.Entry{
			Lookup:       lookup,
			Data:         normalization.Parts{Base: json.RawMessage(`{}`), Fields: map[string]normalization.Part{}},
			Cacheability: meta,
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := encodeEntry(tc.entry)
			if err != nil {
				t.Fatalf("encodeEntry failed: %v", err)
			}
			rec, err := decodeRecord(b)
			if err != nil {
				t.Fatalf("decodeRecord failed: %v", err)
			}
			if rec.Entry == nil {
				t.Fatal("decoded record has no entry")
			}
			got := rec.Entry.entry()
			if got.Lookup != lookup {
				t.Errorf("Lookup = %+v, want %+v", got.Lookup, lookup)
			}
			if !got.Data.Equal(tc.entry.Data) {
				t.Errorf("Data = %q, want the payload bytes unchanged (%q)", got.Data.Base, tc.entry.Data.Base)
			}
			if err := got.Data.Validate(); err != nil {
				t.Errorf("decoded parts are malformed: %v", err)
			}
			if !got.Cacheability.Equal(meta) {
				t.Errorf("Cacheability = %v, want %v", got.Cacheability, meta)
			}
		})
	}
}

func TestDecodeRecord_Errors(t *testing.T) {
	if _, err := decodeRecord([]byte(`{}`)); !errors.Is(err, cache.ErrInvalidEntry) {
		t.Errorf("decodeRecord({}) error = %v, want ErrInvalidEntry", err)
	}
	if _, err := decodeRecord([]byte(`{`)); err == nil {
		t.Error("decodeRecord should fail on invalid JSON")
	}
}

func TestStore_TagKey(t *testing.T) {
	s, err := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), cache.DefaultPolicy(), WithPrefix("test:"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	if got := s.tagKey("node:1"); got != "test:tag:node:1" {
		t.Errorf("tagKey() = %q, want test:tag:node:1", got)
	}
}

// redisAddr returns the integration server address or skips the test.
func redisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("NORMCACHE_REDIS_ADDR")
	if addr == "" {
		t.Skip("NORMCACHE_REDIS_ADDR not set")
	}
	return addr
}

func TestStore_Integration(t *testing.T) {
	addr := redisAddr(t)
	prefix := "normcache-test:" + uuid.NewString() + ":"

	s, err := Dial(Config{Addr: addr, Prefix: prefix}, cache.DefaultPolicy())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	lookup := cache.Lookup{Key: cache.NewDefaultKeyer().Key("node--article", "42"), Bin: cache.DefaultBin}

	t.Run("miss before write", func(t *testing.T) {
		if _, ok, err := s.Get(ctx, lookup); ok || err != nil {
			t.Fatalf("Get() = (%v, %v), want miss", ok, err)
		}
	})

	editor := cache.WithVariations(ctx, map[string]string{"user.permissions": "editor"})
	anon := cache.WithVariations(ctx, map[string]string{"user.permissions": "anonymous"})
	meta := cacheability.New([]string{"node:42"}, []string{"user.permissions"}, 3600)

	t.Run("redirect round trip", func(t *testing.T) {
		entry := testEntry(lookup, "Hi", meta)
		if err := s.Set(editor, entry, lookup); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, ok, err := s.Get(editor, lookup)
		if err != nil || !ok {
			t.Fatalf("Get() = (%v, %v), want hit", ok, err)
		}
		if !got.Data.Equal(entry.Data) {
			t.Errorf("Get() data = %+v, want %+v", got.Data, entry.Data)
		}
		if _, ok, _ := s.Get(anon, lookup); ok {
			t.Error("other variation should miss")
		}
	})

	t.Run("invalidate", func(t *testing.T) {
		if err := s.InvalidateTags(ctx, "node:42"); err != nil {
			t.Fatalf("InvalidateTags failed: %v", err)
		}
		if _, ok, _ := s.Get(editor, lookup); ok {
			t.Error("invalidated entry should miss")
		}
	})

	t.Run("widening drops old slots", func(t *testing.T) {
		id := cache.Lookup{Key: cache.NewDefaultKeyer().Key("node--article", "44"), Bin: cache.DefaultBin}
		english := cache.WithVariations(ctx, map[string]string{"languages": "en"})
		french := cache.WithVariations(ctx, map[string]string{"languages": "fr"})
		byLanguage := cacheability.New([]string{"node:44"}, []string{"languages"}, cacheability.Permanent)

		_ = s.Set(english, testEntry(id, "en", byLanguage), id)
		_ = s.Set(french, testEntry(id, "fr", byLanguage), id)

		editor := cache.WithVariations(english, map[string]string{"user.permissions": "editor"})
		if err := s.Set(editor, testEntry(id, "en editor",
			cacheability.New([]string{"node:44"}, []string{"user.permissions"}, cacheability.Permanent)), id); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		index, err := s.index(ctx, id.Address())
		if err != nil {
			t.Fatalf("index failed: %v", err)
		}
		if len(index) != 1 {
			t.Errorf("index = %v, want only the widened slot", index)
		}
		members, _ := s.rdb.SMembers(ctx, s.tagKey("node:44")).Result()
		if len(members) != 1 {
			t.Errorf("tag members = %v, want only the widened slot", members)
		}
		if _, ok, _ := s.Get(editor, id); !ok {
			t.Error("widened slot should hit")
		}
	})

	t.Run("miss prunes expired members", func(t *testing.T) {
		id := cache.Lookup{Key: cache.NewDefaultKeyer().Key("node--article", "45"), Bin: cache.DefaultBin}
		_ = s.Set(ctx, testEntry(id, "x", cacheability.New([]string{"node:45"}, nil, cacheability.Permanent)), id)

		// Stand-in for TTL expiry.
		_ = s.rdb.Del(ctx, s.prefix+id.Address()).Err()
		if _, ok, _ := s.Get(ctx, id); ok {
			t.Fatal("deleted entry should miss")
		}

		if n, _ := s.rdb.SCard(ctx, s.tagKey("node:45")).Result(); n != 0 {
			t.Errorf("tag set has %d members after the miss, want 0", n)
		}
		if n, _ := s.rdb.Exists(ctx, s.indexKey(id.Address())).Result(); n != 0 {
			t.Error("index should be removed after the miss")
		}
	})

	t.Run("uncacheable is a no-op", func(t *testing.T) {
		other := cache.Lookup{Key: cache.NewDefaultKeyer().Key("node--article", "43"), Bin: cache.DefaultBin}
		if err := s.Set(ctx, testEntry(other, "x", cacheability.Uncacheable()), other); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if _, ok, _ := s.Get(ctx, other); ok {
			t.Error("uncacheable entry should not be stored")
		}
	})
}
