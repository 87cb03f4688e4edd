package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	legacyAccessCookie = "sb-access-token"
	cookiePrefix       = "sb-"
	authTokenSuffix    = "-auth-token"
	base64Prefix       = "base64-"
)

// SessionFromCookies finds the auth session cookie and returns the access
// token it carries. Both the legacy sb-access-token cookie and the
// sb-<project>-auth-token cookie are understood, including the chunked
// form split over sb-<project>-auth-token.0, .1 and so on.
func SessionFromCookies(cookies []*http.Cookie) (string, bool) {
	var (
		whole  string
		chunks = map[int]string{}
	)
	for _, c := range cookies {
		name := c.Name
		switch {
		case name == legacyAccessCookie:
			if c.Value != "" {
				return c.Value, true
			}
		case strings.HasPrefix(name, cookiePrefix) && strings.HasSuffix(name, authTokenSuffix):
			whole = c.Value
		case strings.HasPrefix(name, cookiePrefix) && strings.Contains(name, authTokenSuffix+"."):
			idx := name[strings.LastIndex(name, ".")+1:]
			n, err := strconv.Atoi(idx)
			if err == nil && strings.HasSuffix(name[:strings.LastIndex(name, ".")], authTokenSuffix) {
				chunks[n] = c.Value
			}
		}
	}

	if whole == "" && len(chunks) > 0 {
		keys := make([]int, 0, len(chunks))
		for k := range chunks {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		var b strings.Builder
		for _, k := range keys {
			b.WriteString(chunks[k])
		}
		whole = b.String()
	}
	if whole == "" {
		return "", false
	}

	token := accessTokenFromSession(whole)
	return token, token != ""
}

// accessTokenFromSession decodes a session cookie value: a raw JWT, a JSON
// session object, a JSON array whose first element is the access token, or
// any of these behind a "base64-" prefix or URL encoding
func accessTokenFromSession(value string) string {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "%") {
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
	}
	if strings.HasPrefix(value, base64Prefix) {
		decoded, ok := decodeBase64(strings.TrimPrefix(value, base64Prefix))
		if !ok {
			return ""
		}
		value = strings.TrimSpace(decoded)
	}

	switch {
	case strings.HasPrefix(value, "{"):
		var session struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.Unmarshal([]byte(value), &session); err != nil {
			return ""
		}
		return session.AccessToken
	case strings.HasPrefix(value, "["):
		var parts []interface{}
		if err := json.Unmarshal([]byte(value), &parts); err != nil || len(parts) == 0 {
			return ""
		}
		token, _ := parts[0].(string)
		return token
	default:
		return value
	}
}

func decodeBase64(s string) (string, bool) {
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.StdEncoding} {
		if out, err := enc.DecodeString(s); err == nil {
			return string(out), true
		}
	}
	return "", false
}
