package cacher_test

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/normcache/cache"
	"github.com/jonwraymond/normcache/cacheability"
	"github.com/jonwraymond/normcache/cacher"
	"github.com/jonwraymond/normcache/normalization"
)

type node struct{ id string }

func (n node) ID() string { return n.id }

func (n node) Cacheability() cacheability.Metadata {
	return cacheability.New([]string{"node:" + n.id}, nil, cacheability.Permanent)
}

func Example() {
	store := cache.NewMemoryStore(cache.DefaultPolicy())
	typ := cacher.TypeName("node--article")
	article := node{id: "42"}

	normalizer := cacher.NormalizerFunc(func(context.Context, cacher.ResourceType, cacher.ResourceObject) (normalization.Parts, error) {
		return normalization.Parts{
			Base: json.RawMessage(`{"type":"node--article","id":"42"}`),
			Fields: map[string]normalization.Part{
				"title": {Data: json.RawMessage(`"Hi"`), Cacheability: cacheability.New([]string{"node:42"}, nil, 3600)},
			},
		}, nil
	})

	// First request: computed and written at the end of the lifecycle.
	ctx, lc, _ := cacher.Begin(context.Background(), store)
	c, _ := cacher.FromContext(ctx)
	_, _ = cacher.Normalize(ctx, c, typ, article, normalizer)
	fmt.Printf("%+v\n", lc.End(ctx))

	// Second request: served from the store.
	_, lc, _ = cacher.Begin(context.Background(), store)
	parts, ok := lc.Cacher().Get(context.Background(), typ, article)
	fmt.Println(ok, string(parts.Fields["title"].Data))

	// Output:
	// {Written:1 Skipped:0 Failed:0}
	// true "Hi"
}

func ExampleCacher_SaveLater() {
	store := cache.NewMemoryStore(cache.DefaultPolicy())
	c, _ := cacher.New(store)
	typ := cacher.TypeName("node--article")

	for _, title := range []string{`"draft"`, `"final"`} {
		c.SaveLater(typ, node{id: "1"}, normalization.Parts{
			Base:   json.RawMessage(`{}`),
			Fields: map[string]normalization.Part{"title": {Data: json.RawMessage(title)}},
		})
	}
	fmt.Println("pending:", c.Pending())
	fmt.Printf("%+v\n", c.Terminate(context.Background()))

	parts, _ := c.Get(context.Background(), typ, node{id: "1"})
	fmt.Println(string(parts.Fields["title"].Data))

	// Output:
	// pending: 1
	// {Written:1 Skipped:0 Failed:0}
	// "final"
}
