package sharing

import (
	"fmt"
	"net/url"
	"time"
)

// expiryLayout renders an expiry as e.g. "3/14 at 6:05 PM".
const expiryLayout = "1/2 at 3:04 PM"

func FormatExpiry(t time.Time) string {
	return t.Format(expiryLayout)
}

// Canned phrasings per message template. %s placeholders are the short link
// and the formatted expiry, in that order.
var templates = map[string]string{
	"default":      "I'm sharing my live location with you. Follow me here: %s (link expires %s)",
	"emergency":    "EMERGENCY - I need help. Track my live location now: %s (active until %s)",
	"casual":       "Hey! Sharing my location for a bit, follow along: %s (until %s)",
	"professional": "Live location link for this trip: %s. The link is valid until %s.",
}

// BuildShareMessage renders the share text for a session. Unknown template
// keys fall back to "default". The "custom" key uses the caller's own text
// with the link and expiry appended.
func BuildShareMessage(templateKey, customText, shortURL string, expiresAt time.Time) string {
	expiry := FormatExpiry(expiresAt)
	if templateKey == "custom" && customText != "" {
		return fmt.Sprintf("%s %s (expires %s)", customText, shortURL, expiry)
	}
	format, ok := templates[templateKey]
	if !ok {
		format = templates["default"]
	}
	return fmt.Sprintf(format, shortURL, expiry)
}

// ChannelLinks builds per-channel send links wrapping the share message.
func ChannelLinks(message, shortURL string) map[string]string {
	encoded := url.QueryEscape(message)
	return map[string]string{
		"sms":      "sms:?body=" + encoded,
		"whatsapp": "https://wa.me/?text=" + encoded,
		"email":    "mailto:?subject=" + url.QueryEscape("Live location") + "&body=" + encoded,
		"telegram": "https://t.me/share/url?url=" + url.QueryEscape(shortURL) + "&text=" + encoded,
	}
}

// TemplateKeys lists the supported message template keys.
func TemplateKeys() []string {
	return []string{"default", "emergency", "casual", "professional", "custom"}
}
