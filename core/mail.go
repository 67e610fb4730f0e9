package core

import (
	"net/mail"
	"strings"
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		BodyStr string // simple text/plain content
		Lines   []string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// TextContent returns the plain text body: BodyStr followed by Lines.
func (m *EmailMessage) TextContent() string {
	if len(m.Lines) == 0 {
		return m.BodyStr
	}
	var b strings.Builder
	if m.BodyStr != "" {
		b.WriteString(m.BodyStr)
		b.WriteString("\r\n\r\n")
	}
	b.WriteString(strings.Join(m.Lines, "\r\n"))
	return b.String()
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent() != "" }

// ParseAddressList parses a comma separated list of addresses, skipping invalid ones.
func ParseAddressList(list string) []mail.Address {
	var addrs []mail.Address
	for _, s := range strings.Split(list, ",") {
		if s = CleanString(s); s == "" {
			continue
		}
		if addr, err := mail.ParseAddress(s); err == nil {
			addrs = append(addrs, *addr)
		}
	}
	return addrs
}
