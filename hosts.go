package koffetch

import (
	"net/url"
	"strings"
)

// wildcardHost is the literal "*" allow-list token that permits every host.
const wildcardHost = "*"

// hostSet is the per-Pipeline allow-list of host tokens, as described in
// spec §4.C. It is conceptually copy-on-write: every Pipeline operator
// clones the parent's set before mutating it, so a child Pipeline's allow()
// calls never affect the parent (see spec §3 Ownership).
type hostSet struct {
	tokens map[string]struct{}
}

// newHostSet returns an empty hostSet.
func newHostSet() *hostSet {
	return &hostSet{tokens: make(map[string]struct{})}
}

// clone returns an independent copy of h.
func (h *hostSet) clone() *hostSet {
	out := newHostSet()
	for t := range h.tokens {
		out.tokens[t] = struct{}{}
	}
	return out
}

// add inserts a host token ("*", "hostname", or "hostname:port").
func (h *hostSet) add(token string) {
	h.tokens[token] = struct{}{}
}

// addInitialURL seeds h with the host of u, using the "hostname:port" form
// iff u carries an explicit non-default port (spec §4.C Initialisation).
func (h *hostSet) addInitialURL(u *url.URL) {
	host := u.Hostname()
	if host == "" {
		return
	}
	if port := u.Port(); port != "" && port != defaultPortFor(u.Scheme) {
		h.add(host + ":" + port)
		return
	}
	h.add(host)
}

// defaultPortFor returns the scheme's default port as a string, or "" if the
// scheme has no default (spec §4.C: "any other scheme → no default").
func defaultPortFor(scheme string) string {
	switch strings.ToLower(scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	default:
		return ""
	}
}

// allows decides whether target is permitted for document following, per
// the procedure in spec §4.C.
func (h *hostSet) allows(target *url.URL) bool {
	if _, ok := h.tokens[wildcardHost]; ok {
		return true
	}

	host := target.Hostname()
	if host == "" {
		return false
	}

	def := defaultPortFor(target.Scheme)
	port := target.Port()

	if port == "" || port == def {
		_, ok := h.tokens[host]
		return ok
	}

	_, ok := h.tokens[host+":"+port]
	return ok
}
