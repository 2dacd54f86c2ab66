package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ErrInvalidProxy is returned for a trusted proxy entry that is neither an
// IP address nor a CIDR prefix.
var ErrInvalidProxy = errors.New("proxy headers: invalid proxy entry")

// DefaultTrustedProxies are the loopback and private ranges trusted when no
// proxies are configured.
var DefaultTrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"100.64.0.0/10",
	"::1/128",
	"fc00::/7",
}

type trustSet []netip.Prefix

func parseTrustSet(entries []string) (trustSet, error) {
	ts := make(trustSet, 0, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)

		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, entry)
			}
			ts = append(ts, p.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, entry)
		}
		addr = addr.Unmap()
		ts = append(ts, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return ts, nil
}

func (ts trustSet) contains(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range ts {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func peerAddr(remoteAddr string) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	addr, err := netip.ParseAddr(host)
	return addr, err == nil
}

// ProxyHeaders rewrites r.RemoteAddr, r.URL.Scheme and r.Host from
// X-Forwarded-For, X-Real-IP, X-Forwarded-Proto and X-Forwarded-Host, but
// only for requests whose peer is in trusted. The client address is the
// rightmost X-Forwarded-For hop that is not itself a trusted proxy. An empty
// trusted list means DefaultTrustedProxies.
func ProxyHeaders(trusted []string) (Func, error) {
	if len(trusted) == 0 {
		trusted = DefaultTrustedProxies
	}

	ts, err := parseTrustSet(trusted)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peer, ok := peerAddr(r.RemoteAddr)
			if !ok || !ts.contains(peer) {
				next.ServeHTTP(w, r)
				return
			}

			if client, ok := clientAddr(r.Header, ts); ok {
				r.RemoteAddr = client.String()
			}

			switch scheme := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); scheme {
			case "http", "https":
				u := *r.URL
				u.Scheme = scheme
				r.URL = &u
			}

			if host := strings.TrimSpace(r.Header.Get("X-Forwarded-Host")); host != "" {
				r.Host = host
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func clientAddr(h http.Header, ts trustSet) (netip.Addr, bool) {
	if xff := h.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")

		var last netip.Addr
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			last = addr
			if !ts.contains(addr) {
				return addr, true
			}
		}

		// every parsed hop was a trusted proxy
		if last.IsValid() {
			return last, true
		}
	}

	if addr, err := netip.ParseAddr(strings.TrimSpace(h.Get("X-Real-IP"))); err == nil {
		return addr, true
	}

	return netip.Addr{}, false
}
