package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

type currencyContextKey struct{}

// CurrencyKey stores the detected ISO 4217 code in the request context.
var CurrencyKey = currencyContextKey{}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// Currency detects a default currency for the caller and stores it in the
// request context. Quote requests that name a currency are unaffected; the
// detected value only fills the gap when the body omits one. Detection order:
// explicit X-Currency header, country hints (proxy headers, Accept-Language
// region, GeoIP lookup) mapped through the region's legal tender, then the
// configured fallback.
func Currency(fallback string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := detectCurrency(r, fallback, lookup)
			ctx := context.WithValue(r.Context(), CurrencyKey, code)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrencyFromContext returns the detected currency code, or the empty
// string when the middleware did not run.
func CurrencyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CurrencyKey).(string); ok {
		return v
	}
	return ""
}

func detectCurrency(r *http.Request, fallback string, lookup CountryLookup) string {
	if v := strings.ToUpper(strings.TrimSpace(r.Header.Get("X-Currency"))); len(v) == 3 {
		return v
	}
	if country := resolveCountry(r, lookup); country != "" {
		if code := currencyForCountry(country); code != "" {
			return code
		}
	}
	if fallback != "" {
		return strings.ToUpper(fallback)
	}
	return "EUR"
}

// currencyForCountry maps an ISO country code to its tender currency.
func currencyForCountry(country string) string {
	region, err := language.ParseRegion(country)
	if err != nil {
		return ""
	}
	unit, ok := currency.FromRegion(region)
	if !ok {
		return ""
	}
	return unit.String()
}

func resolveCountry(r *http.Request, lookup CountryLookup) string {
	headerHints := []string{"X-Country-Code", "CF-IPCountry", "X-Appengine-Country"}
	for _, key := range headerHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if region := localeRegion(r.Header.Get("Accept-Language")); region != "" {
		return region
	}
	if lookup != nil {
		if ip := clientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

// localeRegion extracts the region subtag from the first Accept-Language
// entry that carries one, e.g. "de-AT" yields "AT".
func localeRegion(accept string) string {
	for _, part := range strings.Split(accept, ",") {
		token := strings.TrimSpace(strings.Split(part, ";")[0])
		if token == "" {
			continue
		}
		tag, err := language.Parse(token)
		if err != nil {
			continue
		}
		if region, conf := tag.Region(); conf >= language.High && region.IsCountry() {
			return region.String()
		}
	}
	return ""
}

// clientIP returns the best-effort client IP address for the request.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
