package normalize

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query keys that never identify a posting.
var trackingParams = map[string]bool{
	"gclid": true, "fbclid": true, "msclkid": true,
	"mc_cid": true, "mc_eid": true, "mkt_tok": true,
	"refid": true, "trackingid": true, "trk": true,
}

// CanonicalLink cleans a posting URL so trivially different links compare
// equal: scheme and host are lower-cased, the fragment and tracking
// parameters are dropped and the remaining query is sorted. Unparseable input
// is returned trimmed but otherwise untouched.
func CanonicalLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			q.Del(k)
		}
	}
	if strings.Contains(u.Host, "linkedin.com") {
		keep := url.Values{}
		if v := q.Get("currentJobId"); v != "" {
			keep.Set("currentJobId", v)
		}
		q = keep
	}
	for k := range q {
		sort.Strings(q[k])
	}
	u.RawQuery = q.Encode()
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String()
}
