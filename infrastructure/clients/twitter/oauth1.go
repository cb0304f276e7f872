package twitter

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Signer produces OAuth 1.0a HMAC-SHA1 request signatures. It is
// stateless apart from its credentials; Nonce and Now are injectable so
// signatures are reproducible under test.
type Signer struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string

	Nonce func() string
	Now   func() time.Time
}

func NewSigner(apiKey, apiSecret, accessToken, accessTokenSecret string) *Signer {
	return &Signer{
		APIKey:            apiKey,
		APISecret:         apiSecret,
		AccessToken:       accessToken,
		AccessTokenSecret: accessTokenSecret,
		Nonce:             randomNonce,
		Now:               time.Now,
	}
}

// AuthorizationHeader signs one request and returns the full OAuth header
// value. params must hold every query and form parameter of the request;
// rawURL must carry no query string.
func (s *Signer) AuthorizationHeader(method, rawURL string, params url.Values) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     s.APIKey,
		"oauth_nonce":            s.Nonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        fmt.Sprintf("%d", s.Now().Unix()),
		"oauth_token":            s.AccessToken,
		"oauth_version":          "1.0",
	}
	oauthParams["oauth_signature"] = s.signature(method, rawURL, params, oauthParams)

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, percentEncode(k), percentEncode(oauthParams[k])))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// signature builds the base string METHOD&enc(URL)&enc(sorted k=v params)
// and HMAC-SHA1s it with enc(apiSecret)&enc(tokenSecret).
func (s *Signer) signature(method, rawURL string, params url.Values, oauthParams map[string]string) string {
	pairs := make([]string, 0, len(params)+len(oauthParams))
	for k, vs := range params {
		for _, v := range vs {
			pairs = append(pairs, percentEncode(k)+"="+percentEncode(v))
		}
	}
	for k, v := range oauthParams {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(v))
	}
	sort.Strings(pairs)
	paramString := strings.Join(pairs, "&")

	base := strings.ToUpper(method) + "&" + percentEncode(rawURL) + "&" + percentEncode(paramString)
	key := percentEncode(s.APISecret) + "&" + percentEncode(s.AccessTokenSecret)

	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode implements RFC 3986 encoding; the unreserved set only,
// uppercase hex. url.QueryEscape is not byte-compatible (spaces become +).
func percentEncode(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func randomNonce() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
