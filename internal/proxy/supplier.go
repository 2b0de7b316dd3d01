package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

const checkConcurrency = 16

// Supplier hands out egress proxies for link preview fetches in round-robin order
type Supplier interface {
	// Get returns the next proxy URL, or "" when the pool is empty.
	Get() string
	Len() int
}

type supplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewSupplier keeps the proxies that can reach checkURL. Order of the input is kept.
func NewSupplier(ctx context.Context, proxies []string, checkURL string, timeout time.Duration) Supplier {
	if len(proxies) == 0 {
		return &supplier{proxies: []string{}}
	}

	log.Infof("🔄 Checking %d preview proxies...", len(proxies))

	ok := make([]bool, len(proxies))
	semaphore := make(chan struct{}, checkConcurrency)

	var wg sync.WaitGroup
	for i, proxyURL := range proxies {
		wg.Add(1)
		go func(index int, proxy string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			ok[index] = reachable(ctx, proxy, checkURL, timeout)
			if !ok[index] {
				log.Warnf("❌ Proxy %s is not working, skipping", proxy)
			}
		}(i, proxyURL)
	}
	wg.Wait()

	valid := make([]string, 0, len(proxies))
	for i, proxy := range proxies {
		if ok[i] {
			valid = append(valid, proxy)
		}
	}

	log.Infof("✅ %d of %d preview proxies are working", len(valid), len(proxies))
	return &supplier{proxies: valid}
}

func (p *supplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxy
}

func (p *supplier) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

func reachable(ctx context.Context, proxyURL, checkURL string, timeout time.Duration) bool {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Get(checkURL)
	if err != nil {
		log.Debugf("Proxy check failed for %s: %v", proxyURL, err)
		return false
	}
	if resp.IsError() {
		log.Debugf("Proxy check failed for %s with status: %s", proxyURL, resp.Status())
		return false
	}
	return true
}
