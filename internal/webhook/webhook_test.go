package webhook_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/ivanintech/agentic-assistant/internal/webhook"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidate_AcceptsCorrectSignature(t *testing.T) {
	body := []byte(`{"event":"invitee.created"}`)
	secret := "shh"
	headers := http.Header{}
	headers.Set(string(webhook.HeaderCalendly), sign(secret, body))

	if !webhook.Validate(headers, webhook.HeaderCalendly, body, secret) {
		t.Errorf("Validate: expected correctly signed body to pass")
	}
}

func TestValidate_RejectsTamperedBody(t *testing.T) {
	body := []byte(`{"event":"invitee.created"}`)
	secret := "shh"
	headers := http.Header{}
	headers.Set(string(webhook.HeaderCalendly), sign(secret, body))

	tampered := []byte(`{"event":"invitee.canceled"}`)
	if webhook.Validate(headers, webhook.HeaderCalendly, tampered, secret) {
		t.Errorf("Validate: expected tampered body to fail")
	}
}

func TestValidate_StripsSha256Prefix(t *testing.T) {
	body := []byte(`payload`)
	secret := "shh"
	headers := http.Header{}
	headers.Set(string(webhook.HeaderWhatsApp), "sha256="+sign(secret, body))

	if !webhook.Validate(headers, webhook.HeaderWhatsApp, body, secret) {
		t.Errorf("Validate: expected sha256=-prefixed signature to pass")
	}
}

func TestValidate_RejectsMissingSignatureHeader(t *testing.T) {
	headers := http.Header{}
	if webhook.Validate(headers, webhook.HeaderCalendly, []byte("x"), "shh") {
		t.Errorf("Validate: expected missing signature header to fail")
	}
}

func TestValidate_RejectsEmptySharedSecret(t *testing.T) {
	body := []byte("x")
	headers := http.Header{}
	headers.Set(string(webhook.HeaderCalendly), sign("anything", body))
	if webhook.Validate(headers, webhook.HeaderCalendly, body, "") {
		t.Errorf("Validate: expected empty shared secret to fail closed")
	}
}
