package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/solienlac/core"
)

var testConf = &core.Config{
	AppName:                 "Sổ liên lạc",
	DefaultFromEmailName:    "Nhà trường",
	DefaultFromEmailAddress: "noreply@school.test",
	SendgridApiKey:          "key",
}

var principal = mail.Address{Name: "Hiệu trưởng", Address: "principal@school.test"}

func TestConsoleService_SendMessages(t *testing.T) {
	tests := []struct {
		name     string
		msg      core.EmailMessage
		wantSent bool
	}{
		{name: "no recipient", msg: core.EmailMessage{Subject: "s", BodyStr: "b"}},
		{name: "no content", msg: core.EmailMessage{To: []mail.Address{principal}, Subject: "s"}},
		{name: "body", msg: core.EmailMessage{To: []mail.Address{principal}, BodyStr: "b"}, wantSent: true},
		{name: "lines only", msg: core.EmailMessage{To: []mail.Address{principal}, Lines: []string{"- S1"}}, wantSent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewConsoleServiceMock(testConf)
			msg := tt.msg
			svc.SendMessages(&msg)
			assert.Equal(t, tt.wantSent, len(svc.SentMessages()) == 1)
		})
	}
}

func TestConsoleService_format(t *testing.T) {
	svc := NewConsoleService(testConf)
	out := svc.format(core.EmailMessage{
		To:      []mail.Address{principal},
		Subject: "Lưu thất bại",
		BodyStr: "2 of 30 report cards could not be saved:",
		Lines:   []string{"- S1: header_failed", "- S2: invalid"},
	})
	assert.Contains(t, out, "Subject: [Sổ liên lạc] Lưu thất bại\r\n")
	assert.Contains(t, out, "<principal@school.test>")
	assert.Contains(t, out, "2 of 30 report cards could not be saved:\r\n\r\n- S1: header_failed\r\n- S2: invalid")
	assert.NotContains(t, out, "CC:")
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(testConf, nil)
	m := svc.prepare(core.EmailMessage{
		To:      []mail.Address{principal},
		Cc:      []mail.Address{{Address: "it@school.test"}},
		Subject: "Lưu thất bại",
		BodyStr: "body",
	})

	assert.Equal(t, "noreply@school.test", m.From.Address)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Sổ liên lạc] Lưu thất bại", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "principal@school.test", p.To[0].Address)
	require.Len(t, p.CC, 1)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "body", m.Content[0].Value)
}
