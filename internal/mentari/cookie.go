// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mentari

import (
	"net/http"
	"net/url"
	"strings"
)

// CSRFCookieName is the cookie the service stores its CSRF token in.
const CSRFCookieName = "csrftoken"

// ParseCookieString parses a document.cookie style string
// ("a=1; b=2") into cookies. Values are kept raw; segments without a name
// are skipped.
func ParseCookieString(raw string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}

// LookupCookie returns the URL-decoded value of the first cookie named
// name. A value that fails to decode is returned as-is.
func LookupCookie(cookies []*http.Cookie, name string) (string, bool) {
	for _, c := range cookies {
		if c.Name != name {
			continue
		}
		if v, err := url.QueryUnescape(c.Value); err == nil {
			return v, true
		}
		return c.Value, true
	}
	return "", false
}

// CookieValue looks up name in a document.cookie style string.
func CookieValue(raw, name string) (string, bool) {
	return LookupCookie(ParseCookieString(raw), name)
}
