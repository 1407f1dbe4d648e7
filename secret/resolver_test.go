package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type staticProvider struct {
	name   string
	values map[string]string
	closed bool
}

func (p *staticProvider) Name() string { return p.name }

func (p *staticProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := p.values[ref]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (p *staticProvider) Close() error {
	p.closed = true
	return nil
}

func TestParseSecretRef(t *testing.T) {
	tests := []struct {
		in           string
		wantProvider string
		wantRef      string
		wantOK       bool
	}{
		{"secretref:env:REDIS_PASSWORD", "env", "REDIS_PASSWORD", true},
		{"secretref:file:/run/secrets/redis", "file", "/run/secrets/redis", true},
		{"secretref:env:", "", "", false},
		{"secretref::x", "", "", false},
		{"plain", "", "", false},
	}
	for _, tt := range tests {
		p, ref, ok := ParseSecretRef(tt.in)
		if p != tt.wantProvider || ref != tt.wantRef || ok != tt.wantOK {
			t.Errorf("ParseSecretRef(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, p, ref, ok, tt.wantProvider, tt.wantRef, tt.wantOK)
		}
	}
}

func TestResolver_ResolveValue(t *testing.T) {
	t.Setenv("NORMCACHE_TEST_PW", "s3cret")
	vault := &staticProvider{name: "vault", values: map[string]string{"redis": "v-pw", "empty": ""}}
	r := NewResolver(true, EnvProvider{}, vault)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"plain", "localhost:6379", "localhost:6379", nil},
		{"whole env ref", "secretref:env:NORMCACHE_TEST_PW", "s3cret", nil},
		{"whole custom ref", "secretref:vault:redis", "v-pw", nil},
		{"inline", "redis://:secretref:env:NORMCACHE_TEST_PW@cache:6379", "redis://:s3cret@cache:6379", nil},
		{"expanded then resolved", "secretref:env:${NORMCACHE_TEST_NAME}", "s3cret", nil},
		{"unknown provider", "secretref:aws:redis", "", ErrUnknownProvider},
		{"missing env ref", "secretref:env:NORMCACHE_TEST_NOPE", "", ErrNotFound},
		{"strict empty", "secretref:vault:empty", "", ErrEmptySecret},
		{"missing env var", "${NORMCACHE_TEST_NOPE}", "", ErrMissingEnv},
	}
	t.Setenv("NORMCACHE_TEST_NAME", "NORMCACHE_TEST_PW")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveValue(ctx, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ResolveValue(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolver_NilExpandsOnly(t *testing.T) {
	t.Setenv("NORMCACHE_TEST_PW", "s3cret")
	var r *Resolver

	got, err := r.ResolveValue(context.Background(), "${NORMCACHE_TEST_PW}")
	if err != nil || got != "s3cret" {
		t.Errorf("ResolveValue() = (%q, %v), want s3cret", got, err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestResolver_ResolveMap(t *testing.T) {
	t.Setenv("NORMCACHE_TEST_PW", "s3cret")
	r := NewResolver(false, EnvProvider{})

	out, err := r.ResolveMap(context.Background(), map[string]string{"password": "secretref:env:NORMCACHE_TEST_PW"})
	if err != nil || out["password"] != "s3cret" {
		t.Errorf("ResolveMap() = (%v, %v)", out, err)
	}
	if _, err := r.ResolveMap(context.Background(), map[string]string{"k": "secretref:nope:x"}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("ResolveMap error = %v, want ErrUnknownProvider", err)
	}
}

func TestResolver_Close(t *testing.T) {
	p := &staticProvider{name: "vault"}
	if err := NewResolver(false, p).Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if !p.closed {
		t.Error("Close should close providers")
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "redis"), []byte("file-pw\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	p := FileProvider{Dir: dir}

	got, err := p.Resolve(context.Background(), "redis")
	if err != nil || got != "file-pw" {
		t.Errorf("Resolve(relative) = (%q, %v), want file-pw", got, err)
	}
	got, err = FileProvider{}.Resolve(context.Background(), filepath.Join(dir, "redis"))
	if err != nil || got != "file-pw" {
		t.Errorf("Resolve(absolute) = (%q, %v), want file-pw", got, err)
	}
	if _, err := p.Resolve(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
}
