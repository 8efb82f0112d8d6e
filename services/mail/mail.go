package mail

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// Attachment is a file carried by a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// AttachFile reads path into an Attachment.
func AttachFile(path, contentType string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, errors.Wrapf(err, "read attachment %s", path)
	}
	return Attachment{Filename: filepath.Base(path), ContentType: contentType, Content: data}, nil
}

// Message is an outgoing email.
type Message struct {
	To          []string
	Subject     string
	Text        string
	Attachments []Attachment
}

func (m Message) HasRecipients() bool {
	return len(m.To) > 0
}

// Sender delivers messages.
type Sender interface {
	Send(msg Message) error
}

// NewSender returns a SendGrid sender when apiKey is set, otherwise a console sender.
func NewSender(apiKey, appName, from string) Sender {
	if apiKey == "" {
		return NewConsoleSender(appName, from)
	}
	return NewSendgridSender(apiKey, appName, from)
}

type sendgridSender struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

var _ Sender = (*sendgridSender)(nil)

func NewSendgridSender(key, appName, from string) Sender {
	return &sendgridSender{
		key:        key,
		from:       sgmail.NewEmail(appName, from),
		subjPrefix: "[" + appName + "] ",
	}
}

func (svc *sendgridSender) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))

	for _, a := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Type:        a.ContentType,
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}
	return m
}

func (svc *sendgridSender) Send(msg Message) error {
	if !msg.HasRecipients() {
		return errors.New("message has no recipients")
	}
	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return errors.Wrap(err, "sending email")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
	}
	logrus.WithFields(logrus.Fields{"to": strings.Join(msg.To, ","), "subject": msg.Subject}).Info("Email sent")
	return nil
}

// ConsoleSender logs messages instead of delivering them and keeps a copy of each.
type ConsoleSender struct {
	from       string
	subjPrefix string

	mu   sync.Mutex
	sent []Message
}

var _ Sender = (*ConsoleSender)(nil)

func NewConsoleSender(appName, from string) *ConsoleSender {
	return &ConsoleSender{from: from, subjPrefix: "[" + appName + "] "}
}

func (svc *ConsoleSender) Send(msg Message) error {
	if !msg.HasRecipients() {
		return errors.New("message has no recipients")
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, fmt.Sprintf("%s (%d bytes)", a.Filename, len(a.Content)))
	}
	logrus.WithFields(logrus.Fields{
		"from":        svc.from,
		"to":          strings.Join(msg.To, ", "),
		"subject":     svc.subjPrefix + msg.Subject,
		"attachments": names,
	}).Info(msg.Text)

	svc.mu.Lock()
	svc.sent = append(svc.sent, msg)
	svc.mu.Unlock()
	return nil
}

// Sent returns the messages handed to the sender so far.
func (svc *ConsoleSender) Sent() []Message {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]Message, len(svc.sent))
	copy(out, svc.sent)
	return out
}
