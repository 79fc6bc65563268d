package webfetch

import (
	"context"
	"net"
	"testing"

	"github.com/rotisserie/eris"
)

func newGuardFetcher(lookup func(host string) ([]net.IP, error)) *Fetcher {
	return NewFetcher(FetcherOptions{LookupIP: lookup})
}

func TestCheckURLRejectsUnsafeTargets(t *testing.T) {
	t.Parallel()

	fetcher := newGuardFetcher(func(host string) ([]net.IP, error) {
		return []net.IP{net.ParseIP("93.184.216.34")}, nil
	})

	cases := []struct {
		name string
		url  string
	}{
		{"loopback literal", "http://127.0.0.1/x"},
		{"localhost name", "http://localhost/admin"},
		{"metadata endpoint", "http://169.254.169.254/"},
		{"internal domain", "http://internal.local/"},
		{"localdomain suffix", "https://db.localdomain/"},
		{"private range", "http://10.0.0.8/"},
		{"unspecified", "http://0.0.0.0/"},
		{"reserved future-use range", "http://240.0.0.1/"},
		{"benchmarking range", "http://198.18.0.1/"},
		{"ftp scheme", "ftp://example.com/file"},
		{"missing host", "http:///path"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := fetcher.checkURL(tc.url)
			if err == nil {
				t.Fatalf("expected %s to be rejected", tc.url)
			}
			if !eris.Is(err, ErrUnsafeURL) {
				t.Fatalf("expected safety rejection, got %v", err)
			}
		})
	}
}

func TestCheckURLAllowsPublicHosts(t *testing.T) {
	t.Parallel()

	fetcher := newGuardFetcher(func(host string) ([]net.IP, error) {
		return []net.IP{net.ParseIP("93.184.216.34")}, nil
	})

	if err := fetcher.checkURL("https://example.com/"); err != nil {
		t.Fatalf("expected public URL to pass the guard, got %v", err)
	}
}

func TestCheckURLRejectsHostsResolvingToInternalRanges(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		resolved string
	}{
		{"private", "192.168.1.10"},
		{"reserved", "240.0.0.1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fetcher := newGuardFetcher(func(host string) ([]net.IP, error) {
				return []net.IP{net.ParseIP(tc.resolved)}, nil
			})

			err := fetcher.checkURL("https://evil.example.com/")
			if err == nil {
				t.Fatalf("expected rejection when hostname resolves to %s", tc.resolved)
			}
			if !eris.Is(err, ErrUnsafeURL) {
				t.Fatalf("expected safety rejection, got %v", err)
			}
		})
	}
}

func TestCheckURLToleratesResolutionFailure(t *testing.T) {
	t.Parallel()

	fetcher := newGuardFetcher(func(host string) ([]net.IP, error) {
		return nil, eris.New("no such host")
	})

	// DNS failures surface on the actual request, not as a safety rejection.
	if err := fetcher.checkURL("https://unknown.example.com/"); err != nil {
		t.Fatalf("expected resolution failure to pass the guard, got %v", err)
	}
}

func TestFetchRejectsUnsafeURLBeforeNetwork(t *testing.T) {
	t.Parallel()

	fetcher := newGuardFetcher(nil)

	_, err := fetcher.Fetch(context.Background(), "http://127.0.0.1/x")
	if err == nil || !eris.Is(err, ErrUnsafeURL) {
		t.Fatalf("expected safety rejection, got %v", err)
	}
}
