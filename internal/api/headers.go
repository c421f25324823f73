package api

import "bf6-tracker/internal/config"

// Forwarded carries the caller's request headers worth passing upstream.
// Cookies matter most: the bot-mitigation layer keys on them.
type Forwarded struct {
	Accept         string
	AcceptLanguage string
	UserAgent      string
	Cookie         string
	CFBMToken      string
}

// BrowserHeaders builds the header set a real Chrome tab on tracker.gg would
// send. Connection is left to the transport.
func BrowserHeaders(fwd Forwarded, defaultUA string) map[string]string {
	if defaultUA == "" {
		defaultUA = config.DefaultUserAgent
	}
	h := map[string]string{
		"Accept":             or(fwd.Accept, "application/json, text/plain, */*"),
		"Accept-Language":    or(fwd.AcceptLanguage, "en-US,en;q=0.9"),
		"User-Agent":         or(fwd.UserAgent, defaultUA),
		"Referer":            "https://tracker.gg/",
		"Origin":             "https://tracker.gg",
		"Sec-Fetch-Dest":     "empty",
		"Sec-Fetch-Mode":     "cors",
		"Sec-Fetch-Site":     "same-site",
		"Sec-Ch-Ua":          `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		"Sec-Ch-Ua-Mobile":   "?0",
		"Sec-Ch-Ua-Platform": `"Windows"`,
		"DNT":                "1",
		"Cache-Control":      "no-cache",
		"Pragma":             "no-cache",
	}
	if fwd.Cookie != "" {
		cookie := fwd.Cookie
		if fwd.CFBMToken != "" {
			cookie += "; _cf_bm_token=" + fwd.CFBMToken
		}
		h["Cookie"] = cookie
	}
	return h
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
