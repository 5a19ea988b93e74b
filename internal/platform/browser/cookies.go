package browser

import (
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// CookieDomainConfig 单个域名的登录 Cookie 要求
type CookieDomainConfig struct {
	Domain          string   // 为空表示任意域名
	RequiredCookies []string // 维持登录态所必需
}

// Cookie storage state 中的一条 cookie
type Cookie struct {
	Name    string
	Value   string
	Domain  string
	Expires float64
}

// StateCookies 从 storage state JSON 中读取 cookie
func StateCookies(state []byte) []Cookie {
	var cookies []Cookie
	gjson.GetBytes(state, "cookies").ForEach(func(_, c gjson.Result) bool {
		cookies = append(cookies, Cookie{
			Name:    c.Get("name").String(),
			Value:   c.Get("value").String(),
			Domain:  c.Get("domain").String(),
			Expires: c.Get("expires").Float(),
		})
		return true
	})
	return cookies
}

// MissingCookies 返回缺失的必需 cookie，格式为 domain:name
func MissingCookies(state []byte, requirements []CookieDomainConfig) []string {
	cookies := StateCookies(state)
	var missing []string
	for _, req := range requirements {
		host := hostOf(req.Domain)
		for _, name := range req.RequiredCookies {
			if !hasCookie(cookies, host, name) {
				label := name
				if host != "" {
					label = host + ":" + name
				}
				missing = append(missing, label)
			}
		}
	}
	return missing
}

func hasCookie(cookies []Cookie, host, name string) bool {
	for _, c := range cookies {
		if !strings.EqualFold(c.Name, name) || c.Value == "" {
			continue
		}
		if host == "" || domainMatches(c.Domain, host) {
			return true
		}
	}
	return false
}

// CookieHeader 生成发往 host 的 Cookie 请求头
func CookieHeader(state []byte, host string) string {
	var parts []string
	for _, c := range StateCookies(state) {
		if host == "" || domainMatches(c.Domain, host) {
			parts = append(parts, c.Name+"="+c.Value)
		}
	}
	return strings.Join(parts, "; ")
}

// domainMatches cookie 域名 .example.com 可匹配 a.example.com 与 example.com
func domainMatches(cookieDomain, host string) bool {
	d := strings.TrimPrefix(strings.ToLower(cookieDomain), ".")
	host = strings.ToLower(host)
	return host == d || strings.HasSuffix(host, "."+d) || strings.HasSuffix(d, "."+host)
}

func hostOf(domain string) string {
	if domain == "" {
		return ""
	}
	if u, err := url.Parse(domain); err == nil && u.Host != "" {
		return u.Hostname()
	}
	return strings.TrimPrefix(domain, ".")
}
