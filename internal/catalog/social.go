package catalog

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	leadingAt      = regexp.MustCompile(`^@+`)
	leadingScheme  = regexp.MustCompile(`(?i)^https?://(www\.)?`)
	leadingDomains = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^facebook\.com/`),
		regexp.MustCompile(`(?i)^instagram\.com/`),
		regexp.MustCompile(`(?i)^fb\.com/`),
	}
	trailingSlashes = regexp.MustCompile(`/+$`)
	nonDigits       = regexp.MustCompile(`\D+`)
)

// CleanHandle reduces a pasted handle or profile URL to the bare handle.
func CleanHandle(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	s = leadingAt.ReplaceAllString(s, "")
	s = leadingScheme.ReplaceAllString(s, "")
	for _, re := range leadingDomains {
		s = re.ReplaceAllString(s, "")
	}
	s = trailingSlashes.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func prefixed(prefix, handle string) string {
	h := CleanHandle(handle)
	if h == "" {
		return ""
	}
	return prefix + h
}

// FacebookURL returns the profile URL for handle, or "" when blank.
func FacebookURL(handle string) string { return prefixed("https://facebook.com/", handle) }

// InstagramURL returns the profile URL for handle, or "" when blank.
func InstagramURL(handle string) string { return prefixed("https://instagram.com/", handle) }

// FacebookLabel returns the short display form of the profile URL.
func FacebookLabel(handle string) string { return prefixed("facebook.com/", handle) }

// InstagramLabel returns the short display form of the profile URL.
func InstagramLabel(handle string) string { return prefixed("instagram.com/", handle) }

// PhoneDigits keeps only the digits of a phone number.
func PhoneDigits(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

// WhatsAppURL returns the chat link for phone, or "" when it has no digits.
func WhatsAppURL(phone string) string {
	d := PhoneDigits(phone)
	if d == "" {
		return ""
	}
	return "https://wa.me/" + d
}

// ProductChatURL returns a chat link to phone pre-filled with a message
// about the named product. price is the raw recorded price; numeric values
// are formatted as currency.
func ProductChatURL(phone, name, price string) string {
	base := WhatsAppURL(phone)
	if base == "" {
		return ""
	}
	shown := strings.TrimSpace(price)
	if amount, err := ParsePrice(shown); err == nil && shown != "" {
		shown = FormatCurrency(amount)
	}
	msg := "Hola, me interesa el producto: " + strings.TrimSpace(name)
	if shown != "" {
		msg += " (" + shown + ")"
	}
	return base + "?text=" + escapeText(msg)
}

// ShareComposeURL is the contact-less compose link used when a file cannot
// be shared directly.
func ShareComposeURL(text string) string {
	return "https://wa.me/?text=" + escapeText(text)
}

// escapeText percent-encodes a query value with %20 for spaces.
func escapeText(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
