package mail

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSenderFallsBackToConsole(t *testing.T) {
	_, ok := NewSender("", "Chess", "club@example.com").(*ConsoleSender)
	assert.True(t, ok)

	_, ok = NewSender("SG.key", "Chess", "club@example.com").(*sendgridSender)
	assert.True(t, ok)
}

func TestConsoleSenderRecordsMessages(t *testing.T) {
	svc := NewConsoleSender("Chess", "club@example.com")

	err := svc.Send(Message{Subject: "nobody"})
	require.Error(t, err)

	require.NoError(t, svc.Send(Message{To: []string{"parent@example.com"}, Subject: "Statement", Text: "hi"}))
	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Statement", sent[0].Subject)
}

func TestSendgridPrepareEncodesAttachments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Statement_Ana_05-2024.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
	at, err := AttachFile(path, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "Statement_Ana_05-2024.pdf", at.Filename)

	svc := NewSendgridSender("SG.key", "Chess", "club@example.com").(*sendgridSender)
	m := svc.prepare(Message{To: []string{"parent@example.com"}, Subject: "Statement", Text: "hi", Attachments: []Attachment{at}})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Chess] Statement", m.Personalizations[0].Subject)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "parent@example.com", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Attachments, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF")), m.Attachments[0].Content)
}

func TestAttachFileMissing(t *testing.T) {
	_, err := AttachFile(filepath.Join(t.TempDir(), "missing.pdf"), "application/pdf")
	assert.Error(t, err)
}
