package client

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"cakemap/catalog/internal/domain"
	"cakemap/catalog/internal/proxy"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// LinkPreviewer resolves a shop's external link into OpenGraph metadata.
type LinkPreviewer interface {
	Preview(ctx context.Context, url string) (*domain.LinkPreview, error)
}

type linkPreviewer struct {
	// clients holds one client per proxy, or a single direct client. Each
	// client's transport is fixed at construction and never mutated.
	clients []*resty.Client
	current atomic.Uint32
	timeout time.Duration
}

// NewLinkPreviewer fetches links directly, or through proxies when the supplier has any.
func NewLinkPreviewer(timeout time.Duration, proxies proxy.Supplier) LinkPreviewer {
	p := &linkPreviewer{timeout: timeout}

	if proxies != nil {
		for i := 0; i < proxies.Len(); i++ {
			proxyURL := proxies.Get()
			if proxyURL == "" {
				continue
			}
			p.clients = append(p.clients, newPreviewClient(timeout).SetProxy(proxyURL))
		}
	}
	if len(p.clients) == 0 {
		p.clients = []*resty.Client{newPreviewClient(timeout)}
	} else {
		log.Infof("🔗 Using %d preview proxies", len(p.clients))
	}

	return p
}

func newPreviewClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; cakemap-preview/1.0)").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.5")
}

func (p *linkPreviewer) client() (*resty.Client, uint32) {
	idx := p.current.Load()
	return p.clients[int(idx)%len(p.clients)], idx
}

// rotateProxy moves later previews off the client that failed. The failed call is
// not retried, and concurrent failures on the same client rotate only once.
func (p *linkPreviewer) rotateProxy(failed uint32) {
	if len(p.clients) < 2 {
		return
	}
	if p.current.CompareAndSwap(failed, failed+1) {
		log.Infof("🔄 Switching preview proxy to #%d", int(failed+1)%len(p.clients))
	}
}

func (p *linkPreviewer) Preview(ctx context.Context, url string) (*domain.LinkPreview, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, idx := p.client()
	resp, err := client.R().
		SetContext(reqCtx).
		Get(url)
	if err != nil {
		p.rotateProxy(idx)
		return nil, domain.NewTransientError("preview link", fmt.Errorf("failed to fetch URL: %w", err))
	}
	if resp.IsError() {
		return nil, domain.NewTransientError("preview link", fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status()))
	}

	preview, err := parseLinkPreview(resp.String(), url)
	if err != nil {
		return nil, domain.NewDecodeError("preview link", err)
	}

	log.Debugf("Parsed preview for %s: %q", url, preview.Title)
	return preview, nil
}

func parseLinkPreview(html, url string) (*domain.LinkPreview, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	preview := &domain.LinkPreview{URL: url}

	doc.Find("meta").Each(func(i int, s *goquery.Selection) {
		key, ok := s.Attr("property")
		if !ok {
			key, _ = s.Attr("name")
		}
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}

		switch strings.ToLower(key) {
		case "og:title":
			preview.Title = content
		case "og:description":
			preview.Description = content
		case "description":
			if preview.Description == "" {
				preview.Description = content
			}
		case "og:image":
			preview.ImageURL = content
		}
	})

	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return preview, nil
}
