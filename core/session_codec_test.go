package core

import (
	"strings"
	"testing"
	"time"
)

const createdAtMillis int64 = 1414450780000

func TestJSONSessionCodec_GuestRoundTrip(t *testing.T) {
	codec := JSONSessionCodec{}
	session := NewGuestSession(BearerCredential{
		TokenType:   "testTokenType",
		AccessToken: "testAccessToken",
		GuestToken:  "testGuestToken",
		IssuedAt:    time.UnixMilli(createdAtMillis),
	})

	payload, err := codec.Encode(session)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"auth_token":{"auth_type":"guest","auth_token":{"guest_token":"testGuestToken","token_type":"testTokenType","access_token":"testAccessToken","created_at":1414450780000}},"id":0}`
	if string(payload) != want {
		t.Fatalf("unexpected payload:\n got %s\nwant %s", payload, want)
	}

	decoded, err := codec.Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cred, ok := decoded.Bearer()
	if !ok {
		t.Fatalf("expected bearer credential, got %T", decoded.Credential)
	}
	if cred.GuestToken != "testGuestToken" || cred.AccessToken != "testAccessToken" {
		t.Fatalf("unexpected credential: %+v", cred)
	}
	if cred.IssuedAt.UnixMilli() != createdAtMillis {
		t.Fatalf("expected created_at to survive, got %d", cred.IssuedAt.UnixMilli())
	}
}

func TestJSONSessionCodec_UserSession(t *testing.T) {
	codec := JSONSessionCodec{}
	session, err := NewUserSession(SignedPairCredential{Token: "token", Secret: "secret", CreatedAt: time.UnixMilli(createdAtMillis)}, 11, "screen")
	if err != nil {
		t.Fatalf("new user session: %v", err)
	}
	payload, err := codec.Encode(session)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(payload), `"auth_type":"oauth1a"`) {
		t.Fatalf("expected oauth1a auth type in %s", payload)
	}
	decoded, err := codec.Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cred, ok := decoded.SignedPair()
	if !ok || cred.Token != "token" || cred.Secret != "secret" {
		t.Fatalf("unexpected credential: %+v", decoded.Credential)
	}
	if decoded.ID != 11 || decoded.UserName != "screen" {
		t.Fatalf("unexpected session identity: %+v", decoded)
	}
}

func TestJSONSessionCodec_AppOnlyMissingCreatedAt(t *testing.T) {
	payload := `{"auth_token":{"auth_type":"oauth2","auth_token":{"access_token":"a","token_type":"bearer"}},"id":0}`
	decoded, err := JSONSessionCodec{}.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cred, ok := decoded.Bearer()
	if !ok {
		t.Fatalf("expected bearer credential")
	}
	if !cred.IssuedAt.IsZero() {
		t.Fatalf("expected missing created_at to decode as zero")
	}
	if !cred.IsExpired(time.Now()) {
		t.Fatalf("expected credential without created_at to be expired")
	}
}

func TestJSONSessionCodec_DecodeRejectsInvalidPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not json":       "not json",
		"unknown type":   `{"auth_token":{"auth_type":"invalid","auth_token":{}},"id":0}`,
		"missing tokens": `{"id":0}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := (JSONSessionCodec{}).Decode([]byte(payload)); err == nil {
				t.Fatalf("expected decode failure")
			}
		})
	}
}

func TestJSONSessionCodec_EncodeRequiresCredential(t *testing.T) {
	if _, err := (JSONSessionCodec{}).Encode(Session{ID: 1}); err == nil {
		t.Fatalf("expected missing credential to fail")
	}
}
