package alert

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func settingsMap(m map[string]string) func(string) (string, error) {
	return func(key string) (string, error) {
		v, ok := m[key]
		if !ok {
			return "", errors.New("no such setting")
		}
		return v, nil
	}
}

var completeSettings = map[string]string{
	"smtp_host":        "mail.example.com",
	"smtp_port":        "587",
	"smtp_username":    "warden",
	"smtp_password":    "secret",
	"smtp_from":        "warden@example.com",
	"smtp_use_tls":     "true",
	"alert_recipients": "ops@example.com, oncall@example.com",
}

func TestSendAlertSuccess(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string

	d := &SMTPDispatcher{
		getSetting: settingsMap(completeSettings),
		sendMail: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
			return nil
		},
	}

	if !d.SendAlert("Client Disconnected: Office", "no handshake for 35 minutes") {
		t.Fatal("SendAlert() = false, want true")
	}
	if gotAddr != "mail.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "warden@example.com" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 2 || gotTo[0] != "ops@example.com" || gotTo[1] != "oncall@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Client Disconnected: Office") {
		t.Errorf("message missing subject header:\n%s", gotMsg)
	}
	if !strings.Contains(gotMsg, "no handshake for 35 minutes") {
		t.Errorf("message missing body:\n%s", gotMsg)
	}
}

func TestSendAlertDeliveryFailure(t *testing.T) {
	d := &SMTPDispatcher{
		getSetting: settingsMap(completeSettings),
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		},
	}
	if d.SendAlert("subject", "body") {
		t.Error("SendAlert() = true, want false on delivery failure")
	}
}

func TestSendAlertIncompleteSettings(t *testing.T) {
	incomplete := map[string]string{}
	for k, v := range completeSettings {
		incomplete[k] = v
	}
	incomplete["smtp_host"] = ""

	sent := false
	d := &SMTPDispatcher{
		getSetting: settingsMap(incomplete),
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			sent = true
			return nil
		},
	}
	if d.SendAlert("subject", "body") {
		t.Error("SendAlert() = true, want false with no SMTP host")
	}
	if sent {
		t.Error("sendMail should not be called with incomplete settings")
	}
}

func TestSendAlertNoRecipients(t *testing.T) {
	noRcpt := map[string]string{}
	for k, v := range completeSettings {
		noRcpt[k] = v
	}
	noRcpt["alert_recipients"] = " , "

	d := &SMTPDispatcher{
		getSetting: settingsMap(noRcpt),
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			t.Error("sendMail should not be called")
			return nil
		},
	}
	if d.SendAlert("subject", "body") {
		t.Error("SendAlert() = true, want false with no recipients")
	}
}
