package koffetch

import (
	"net/url"
	"path"
	"strconv"
	"strings"
)

// validateURL rejects URL strings that cannot usefully be fetched, before
// any I/O is attempted. fromFollow relaxes the scheme requirement for
// absolute paths resolved by the Follow operator against a base URL.
func validateURL(input string, fromFollow bool) error {
	if strings.TrimSpace(input) == "" {
		return invalidURLError(input)
	}

	if strings.ContainsAny(input, " \t\n\r\v\f") {
		return invalidURLError(input)
	}

	lower := strings.ToLower(input)
	if strings.HasPrefix(lower, "javascript:") {
		return invalidURLError(input)
	}

	if input == "://missing-scheme" || input == "http://" || strings.HasPrefix(input, "://") {
		return invalidURLError(input)
	}

	hasScheme := strings.Contains(input, "://")
	if !hasScheme {
		// Absolute path or relative reference. Only the Follow operator
		// accepts these (they get resolved against a base); open() requires
		// a full URL.
		if !fromFollow {
			return invalidURLError(input)
		}
		if _, err := url.Parse(input); err != nil {
			return invalidURLError(input)
		}
		return nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return invalidURLError(input)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return invalidURLError(input)
	}

	return nil
}

// resolveFollowURL resolves an entry's raw URL string against the
// Pipeline's base URL, per spec §4.B:
//   - absolute http(s)://... is used as-is (after validation)
//   - absolute path /x resolves against the base's scheme+host+port
//   - relative a/b resolves against the base's directory
//   - anything else yields ok=false
func resolveFollowURL(base *url.URL, raw string) (resolved *url.URL, ok bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	if err := validateURL(raw, true); err != nil {
		return nil, false
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, false
		}
		return u, true
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}

	if strings.HasPrefix(raw, "/") {
		out := *base
		out.Path = ref.Path
		out.RawQuery = ref.RawQuery
		out.Fragment = ref.Fragment
		return &out, true
	}

	// Relative: resolve against the base's directory, the way a browser
	// resolves a relative href.
	baseDir := *base
	baseDir.Path = path.Dir(base.Path)
	if !strings.HasSuffix(baseDir.Path, "/") {
		baseDir.Path += "/"
	}
	return baseDir.ResolveReference(ref), true
}

// appendPageQuery builds the paginated request URL for the given base,
// offset, chunk size and optional sheet name, respecting any query string
// the caller already attached to the base URL (see SPEC_FULL.md Open
// Question 1: normalise rather than produce a malformed URL).
func appendPageQuery(base *url.URL, offset, chunkSize int, sheetName string) string {
	out := *base
	q := out.Query()
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(chunkSize))
	if sheetName != "" {
		q.Set("sheet", sheetName)
	}
	out.RawQuery = q.Encode()
	return out.String()
}
