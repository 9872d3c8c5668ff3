// Package alert delivers operator notifications. The monitoring services only
// see the Dispatcher interface; the production implementation sends email
// using SMTP settings stored in the database.
package alert

import (
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"

	"wgwarden/internal/database"
)

// Dispatcher is the alert collaborator consumed by the peer status tracker.
// SendAlert reports delivery success; it must never panic or block a polling
// loop on misconfiguration.
type Dispatcher interface {
	SendAlert(subject, message string) bool
}

// SMTPDispatcher sends plain-text alert emails. SMTP settings are read from
// the settings table on every send so operators can change them at runtime
// without a restart.
type SMTPDispatcher struct {
	getSetting func(key string) (string, error)
	sendMail   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPDispatcher() *SMTPDispatcher {
	return &SMTPDispatcher{
		getSetting: database.GetSetting,
		sendMail:   smtp.SendMail,
	}
}

type smtpSettings struct {
	host       string
	port       string
	username   string
	password   string
	from       string
	recipients []string
}

func (d *SMTPDispatcher) loadSettings() (*smtpSettings, error) {
	s := &smtpSettings{}
	var err error
	if s.host, err = d.getSetting("smtp_host"); err != nil {
		return nil, err
	}
	if s.port, err = d.getSetting("smtp_port"); err != nil {
		return nil, err
	}
	if s.username, err = d.getSetting("smtp_username"); err != nil {
		return nil, err
	}
	if s.password, err = d.getSetting("smtp_password"); err != nil {
		return nil, err
	}
	if s.from, err = d.getSetting("smtp_from"); err != nil {
		return nil, err
	}

	raw, err := d.getSetting("alert_recipients")
	if err != nil {
		return nil, err
	}
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			s.recipients = append(s.recipients, r)
		}
	}

	if s.host == "" || s.port == "" || s.from == "" {
		return nil, fmt.Errorf("smtp settings incomplete")
	}
	if len(s.recipients) == 0 {
		return nil, fmt.Errorf("no alert recipients configured")
	}
	return s, nil
}

// SendAlert sends the alert to every configured recipient. Any failure is
// logged and reported as false; callers use the result to decide whether the
// alert cooldown clock may advance.
func (d *SMTPDispatcher) SendAlert(subject, message string) bool {
	s, err := d.loadSettings()
	if err != nil {
		log.Printf("alert: not sending %q: %v", subject, err)
		return false
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(s.recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(message)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	// smtp.SendMail negotiates STARTTLS whenever the server offers it.
	addr := net.JoinHostPort(s.host, s.port)
	if err := d.sendMail(addr, auth, s.from, s.recipients, []byte(msg.String())); err != nil {
		log.Printf("alert: send %q via %s failed: %v", subject, addr, err)
		return false
	}
	return true
}
