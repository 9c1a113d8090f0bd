package websearch

import (
	"errors"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DefaultLinkLimit is the number of links kept per candidate.
const DefaultLinkLimit = 3

var excludedDomains = map[string]bool{
	"google.com":     true,
	"bing.com":       true,
	"duckduckgo.com": true,
	"yahoo.com":      true,
	"yandex.ru":      true,
	"yandex.com":     true,
	"baidu.com":      true,
	"ask.com":        true,
	"ecosia.org":     true,
	"qwant.com":      true,
	"brave.com":      true,
	"wikipedia.org":  true,
	"wikimedia.org":  true,
	"wiktionary.org": true,
	"wikidata.org":   true,
	"britannica.com": true,
	"larousse.fr":    true,
}

var professionalDomains = map[string]bool{
	"linkedin.com":           true,
	"github.com":             true,
	"gitlab.com":             true,
	"bitbucket.org":          true,
	"codeberg.org":           true,
	"stackoverflow.com":      true,
	"stackexchange.com":      true,
	"kaggle.com":             true,
	"huggingface.co":         true,
	"behance.net":            true,
	"dribbble.com":           true,
	"artstation.com":         true,
	"medium.com":             true,
	"dev.to":                 true,
	"hashnode.com":           true,
	"malt.fr":                true,
	"welcometothejungle.com": true,
	"xing.com":               true,
	"wellfound.com":          true,
	"researchgate.net":       true,
	"orcid.org":              true,
	"leetcode.com":           true,
	"hackerrank.com":         true,
	"codepen.io":             true,
	"npmjs.com":              true,
	"pypi.org":               true,
	"speakerdeck.com":        true,
}

type link struct {
	url    string
	domain string
}

// PickLinks canonicalises result URLs, drops search engines and encyclopedias,
// keeps one link per registrable domain, and returns up to limit links with
// professional platforms first. Order within each group follows the input.
func PickLinks(results []Result, limit int) []string {
	if limit <= 0 {
		limit = DefaultLinkLimit
	}

	seen := make(map[string]bool)
	var preferred, other []link
	for _, r := range results {
		canonical, err := CanonicalURL(r.URL)
		if err != nil {
			continue
		}
		domain := registrableDomain(canonical)
		if domain == "" || excludedDomains[domain] || isSearchHost(canonical) || seen[domain] {
			continue
		}
		seen[domain] = true

		l := link{url: canonical, domain: domain}
		if professionalDomains[domain] {
			preferred = append(preferred, l)
		} else {
			other = append(other, l)
		}
	}

	out := make([]string, 0, limit)
	for _, l := range append(preferred, other...) {
		if len(out) == limit {
			break
		}
		out = append(out, l.url)
	}
	return out
}

// CanonicalURL lowercases scheme and host, defaults the scheme to https,
// strips www., fragments, default ports and utm_* style tracking parameters.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	if u, err := url.Parse(raw); err == nil && u.Opaque != "" {
		return "", errors.New("unsupported url scheme")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("unsupported url scheme")
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", errors.New("url missing host")
	}
	host = strings.TrimPrefix(host, "www.")
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	if u.Path != "" && u.Path != "/" {
		u.Path = strings.TrimSuffix(path.Clean(u.Path), "/")
	} else {
		u.Path = ""
	}
	u.RawPath = ""

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") || lower == "gclid" || lower == "fbclid" || lower == "msclkid" || lower == "trk" {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func registrableDomain(canonical string) string {
	u, err := url.Parse(canonical)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

func isSearchHost(canonical string) bool {
	u, err := url.Parse(canonical)
	if err != nil {
		return true
	}
	host := u.Hostname()
	for _, prefix := range []string{"google.", "bing.", "search.", "duckduckgo."} {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	return false
}
