// Package request describes how a model is fetched from the network. The
// cache core only sees the Request interface: a stable cache key plus a
// blocking execute call.
package request

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/spaolacci/murmur3"

	"github.com/burrowkit/burrow/fetch"
)

// Request fetches a model of type M. Hash must be stable for the lifetime of
// the request: it is the key under which results are cached across every
// tier.
type Request[M any] interface {
	// Hash returns the cache key for this request.
	Hash() string

	// Execute performs the fetch and returns the model or an error.
	Execute(ctx context.Context) (M, error)
}

// HashURL returns the 128-bit murmur3 digest of url as a 32-character hex
// string. Requests for the same URL always map to the same cache key,
// whichever process computed it.
func HashURL(url string) string {
	h1, h2 := murmur3.Sum128([]byte(url))
	var buf [16]byte
	for i := range 8 {
		buf[i] = byte(h1 >> (56 - 8*i))
		buf[8+i] = byte(h2 >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:])
}

// HTTP is a Request that GETs a URL through a fetch.Client and decodes the
// response into M. The cache key is the URL's digest, computed eagerly at
// construction so it can never drift from the URL it was derived from.
type HTTP[M any] struct {
	url    string
	hash   string
	client *fetch.Client
}

// NewHTTP creates an HTTP request for url.
func NewHTTP[M any](client *fetch.Client, url string) (*HTTP[M], error) {
	if client == nil {
		return nil, errors.New("request: nil fetch client")
	}
	if url == "" {
		return nil, errors.New("request: empty url")
	}
	return &HTTP[M]{url: url, hash: HashURL(url), client: client}, nil
}

// URL returns the request URL.
func (r *HTTP[M]) URL() string { return r.url }

// Hash implements Request.
func (r *HTTP[M]) Hash() string { return r.hash }

// Execute implements Request.
func (r *HTTP[M]) Execute(ctx context.Context) (M, error) {
	var model M
	if err := r.client.GetModel(ctx, r.url, &model); err != nil {
		var zero M
		return zero, err
	}
	return model, nil
}

// Func adapts a plain function into a Request, mostly for tests and for
// content that is produced locally rather than fetched over HTTP.
type Func[M any] struct {
	Key string
	Fn  func(ctx context.Context) (M, error)
}

// Hash implements Request.
func (f Func[M]) Hash() string { return f.Key }

// Execute implements Request.
func (f Func[M]) Execute(ctx context.Context) (M, error) {
	return f.Fn(ctx)
}
