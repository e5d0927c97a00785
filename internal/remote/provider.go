// Package remote implements navdata.Provider against another navgraph
// server's /provider routes, so one instance can serve tiles to another.
package remote

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/banshee-data/navgraph/internal/httputil"
	"github.com/banshee-data/navgraph/internal/metrics"
	"github.com/banshee-data/navgraph/internal/navdata"
)

// Paths served by api.Server when it is given a provider.
const (
	TilePath = "/provider/tiles/"
	FullPath = "/provider/full"
	FillPath = "/provider/fill"
)

// Provider fetches tile, full and fill payloads over HTTP.
type Provider struct {
	client *httputil.JSONClient
}

var _ navdata.Provider = (*Provider)(nil)

// New returns a Provider rooted at base. A nil doer uses http.DefaultClient.
func New(base string, doer httputil.Doer) (*Provider, error) {
	c, err := httputil.NewJSONClient(base, doer)
	if err != nil {
		return nil, err
	}
	return &Provider{client: c}, nil
}

func (p *Provider) ImageTileByGeohash(ctx context.Context, tile string) (*navdata.TilePayload, error) {
	var out navdata.TilePayload
	if err := p.get(ctx, "tile", TilePath+url.PathEscape(tile), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Provider) ImageByKeyFull(ctx context.Context, keys []string) (*navdata.FullPayload, error) {
	var out navdata.FullPayload
	if err := p.get(ctx, "full", FullPath, keysQuery(keys), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Provider) ImageByKeyFill(ctx context.Context, keys []string) (*navdata.FillPayload, error) {
	var out navdata.FillPayload
	if err := p.get(ctx, "fill", FillPath, keysQuery(keys), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Provider) get(ctx context.Context, op, path string, q url.Values, out interface{}) error {
	start := time.Now()
	err := p.client.GetJSON(ctx, path, q, out)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ProviderRequestsTotal.WithLabelValues("remote_"+op, outcome).Inc()
	if err != nil {
		return fmt.Errorf("remote %s after %s: %w", op, time.Since(start).Round(time.Millisecond), err)
	}
	return nil
}

func keysQuery(keys []string) url.Values {
	return url.Values{"keys": {strings.Join(keys, ",")}}
}

// ParseKeys splits a comma separated keys parameter, dropping blanks.
func ParseKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
