package models

import "strings"

type vendorPattern struct {
	substr string
	vendor string
}

// Checked in order against the lowercased user agent; the first hit wins.
var vendorPatterns = []vendorPattern{
	{"chatgpt", "ChatGPT"},
	{"gptbot", "ChatGPT"},
	{"oai-searchbot", "ChatGPT"},
	{"openai", "ChatGPT"},
	{"claude", "Claude"},
	{"anthropic", "Claude"},
	{"perplexity", "Perplexity"},
	{"google-extended", "Google"},
	{"googlebot", "Google"},
	{"gemini", "Google"},
	{"bytespider", "ByteDance"},
	{"cohere", "Cohere"},
	{"ccbot", "Cohere"},
	{"amazonbot", "Amazon"},
	{"youbot", "You.com"},
	{"diffbot", "Diffbot"},
	{"applebot", "Apple"},
	{"meta-externalagent", "Meta"},
}

// VendorFor names the AI vendor behind ua, or "" when unknown.
func VendorFor(ua string) string {
	if ua == "" {
		return ""
	}
	lower := strings.ToLower(ua)
	for _, p := range vendorPatterns {
		if strings.Contains(lower, p.substr) {
			return p.vendor
		}
	}
	return ""
}
