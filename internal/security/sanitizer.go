package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はディレクトリAPIから受け取った文字列をレスポンス前に無害化する。
// bluemondayのStrictPolicyで全てのタグを除去し、プレーンテキストとして返す。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Text はタグを除去したプレーンテキストを返す。
// StrictPolicyがエスケープした文字参照は元の文字に戻す。
func (s *TextSanitizer) Text(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

// URL は画像URLとして表示できるhttp/httpsの絶対URLのみを返す。
// それ以外のスキーム（javascript:, data: 等）や相対URLは空文字にする。
func (s *TextSanitizer) URL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	default:
		return ""
	}
}
