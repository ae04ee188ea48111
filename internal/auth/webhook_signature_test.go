package auth

import (
	"fmt"
	"strings"
	"testing"
)

func TestVerifyWebhookSignature_Success(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	dataID := "123456789"
	requestID := "req-abc"
	ts := "1704908010"

	header := fmt.Sprintf("ts=%s,v1=%s", ts, SignWebhookManifest(secret, dataID, requestID, ts))
	if err := VerifyWebhookSignature(secret, dataID, requestID, header); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestVerifyWebhookSignature_HeaderWithSpaces(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	header := fmt.Sprintf("ts=1704908010, v1=%s", SignWebhookManifest(secret, "1", "r", "1704908010"))
	if err := VerifyWebhookSignature(secret, "1", "r", header); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestVerifyWebhookSignature_MutatedSignature(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	dataID := "123456789"
	requestID := "req-abc"
	ts := "1704908010"
	sig := SignWebhookManifest(secret, dataID, requestID, ts)

	// Flip one hex digit at every position.
	for i := 0; i < len(sig); i++ {
		mutated := []byte(sig)
		if mutated[i] == '0' {
			mutated[i] = '1'
		} else {
			mutated[i] = '0'
		}
		header := fmt.Sprintf("ts=%s,v1=%s", ts, string(mutated))
		if err := VerifyWebhookSignature(secret, dataID, requestID, header); err == nil {
			t.Fatalf("mutation at %d accepted", i)
		}
	}
}

func TestVerifyWebhookSignature_MutatedManifest(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	ts := "1704908010"
	header := fmt.Sprintf("ts=%s,v1=%s", ts, SignWebhookManifest(secret, "123456789", "req-abc", ts))

	cases := []struct {
		name      string
		dataID    string
		requestID string
	}{
		{name: "data id changed", dataID: "123456780", requestID: "req-abc"},
		{name: "request id changed", dataID: "123456789", requestID: "req-abd"},
		{name: "empty request id", dataID: "123456789", requestID: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := VerifyWebhookSignature(secret, tc.dataID, tc.requestID, header); err == nil {
				t.Fatal("mutated manifest accepted")
			}
		})
	}

	// Timestamp in the header is part of the manifest too.
	tamperedTS := strings.Replace(header, "1704908010,", "1704908011,", 1)
	if err := VerifyWebhookSignature(secret, "123456789", "req-abc", tamperedTS); err == nil {
		t.Fatal("tampered ts accepted")
	}
}

func TestVerifyWebhookSignature_MalformedHeader(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		header string
	}{
		{name: "empty", header: ""},
		{name: "missing v1", header: "ts=1704908010"},
		{name: "missing ts", header: "v1=deadbeef"},
		{name: "no pairs", header: "garbage"},
		{name: "bad hex", header: "ts=1704908010,v1=zzzz"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := VerifyWebhookSignature("whsec_test", "1", "r", tc.header); err == nil {
				t.Fatal("malformed header accepted")
			}
		})
	}
}

func TestParseSignatureHeader(t *testing.T) {
	t.Parallel()

	ts, v1, err := ParseSignatureHeader("ts=1704908010,v1=abc123")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if ts != "1704908010" || v1 != "abc123" {
		t.Fatalf("unexpected fields: ts=%q v1=%q", ts, v1)
	}
}
