package source

import (
	"net/url"
	"slices"
	"strings"

	"github.com/gauravRathod674/OtakuRealm/util"
)

// Key is the canonical cache identifier of one logical resource.
// Equal inputs always produce an equal key; different inputs never collide.
type Key string

// NewKey derives the key of a resource of the given kind from free-text inputs
// such as titles and content types.
// Each part is trimmed, whitespace-squashed and lowercased, then path-escaped so
// that a "/" inside a part can not be mistaken for a separator.
func NewKey(kind Kind, parts ...string) Key {
	return build(kind, canonical, parts)
}

// NewExactKey derives a key from parts that name a resource verbatim: URLs, read
// paths, slugs and user ids. Parts are only trimmed, so inputs differing in case
// stay apart.
func NewExactKey(kind Kind, parts ...string) Key {
	return build(kind, strings.TrimSpace, parts)
}

func build(kind Kind, clean func(string) string, parts []string) Key {
	var b strings.Builder
	b.WriteString(string(kind))

	for _, part := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(clean(part)))
	}

	return Key(b.String())
}

// WithFilters appends a canonical form of filters to k.
// Empty values are dropped and values are sorted, so the order in which filters
// were supplied never matters.
func (k Key) WithFilters(filters url.Values) Key {
	clean := make(url.Values, len(filters))

	for name, values := range filters {
		name = canonical(name)
		if name == "" {
			continue
		}

		for _, v := range values {
			if v = canonical(v); v != "" {
				clean[name] = append(clean[name], v)
			}
		}

		if vs, ok := clean[name]; ok {
			slices.Sort(vs)
			clean[name] = slices.Compact(vs)
		}
	}

	if len(clean) == 0 {
		return k
	}

	return Key(string(k) + "?" + clean.Encode())
}

// Kind returns the resource kind k was derived for.
func (k Key) Kind() Kind {
	s := string(k)
	if i := strings.IndexAny(s, "/?"); i >= 0 {
		s = s[:i]
	}

	return Kind(s)
}

func (k Key) String() string {
	return string(k)
}

func canonical(s string) string {
	return strings.ToLower(util.Squash(s))
}
