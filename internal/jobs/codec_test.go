package jobs

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDecodePayloadRoundTrip(t *testing.T) {
	date := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	raw, err := EmailPayload{
		To:        "ada@example.com",
		EventName: "Go Meetup",
		EventDate: date,
	}.JSON()

	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	p, err := DecodePayload(TypeRegistrationConfirmation, raw)

	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	if p.To != "ada@example.com" || p.EventName != "Go Meetup" || !p.EventDate.Equal(date) {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestDecodePayloadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		typ  JobType
		raw  json.RawMessage
	}{
		{name: "unknown_type", typ: JobType("email.unknown"), raw: json.RawMessage(`{}`)},
		{name: "empty_payload", typ: TypeEventReminder, raw: nil},
		{name: "bad_json", typ: TypeEventReminder, raw: json.RawMessage(`{`)},
		{name: "missing_recipient", typ: TypeEventReminder, raw: json.RawMessage(`{"eventName":"X"}`)},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(tt.typ, tt.raw)

			if err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestSubjectPerKind(t *testing.T) {
	if got := Subject(TypeRegistrationConfirmation, "GopherCon"); got != "Registration Confirmed: GopherCon" {
		t.Errorf("confirmation subject = %q", got)
	}
	if got := Subject(TypeRegistrationCancellation, "GopherCon"); got != "Registration Cancelled: GopherCon" {
		t.Errorf("cancellation subject = %q", got)
	}
	if got := Subject(TypeEventReminder, "GopherCon"); !strings.HasPrefix(got, "Reminder:") {
		t.Errorf("reminder subject = %q", got)
	}
}
