package sign

import (
	"regexp"
	"testing"
)

const testSignKey = "SU5JTElURV9UUklQTEVERVNfS0VZU1RS"

var hexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestDigestKnownVectors(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		want   string
	}{
		{
			name:   "single field",
			fields: []Field{{"a", "b"}},
			want:   "42144f3939c3ffbbf0bf8b1f12affb5c23a4c5bd41e0ff672d54a5754f062058",
		},
		{
			name: "request signature chain",
			fields: []Field{
				{"oid", "ORD-1"},
				{"price", "1000"},
				{"timestamp", "1700000000000"},
			},
			want: "7752fc3a6f24b367d95a2fb81e1a2886a23c04d8ccd0272eb53f12764c695726",
		},
		{
			name: "auth signature chain",
			fields: []Field{
				{"authToken", "tok-123"},
				{"timestamp", "1700000000000"},
			},
			want: "c22788c74b1187f648e64505b456d4caa5658465edff275b84a4433ed1bc9af2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Digest(tt.fields...)
			if got != tt.want {
				t.Errorf("Digest() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDigestShape(t *testing.T) {
	got := RequestSignature("ORD-1", "1000", "1700000000000")
	if !hexPattern.MatchString(got) {
		t.Errorf("Expected 64 lowercase hex chars, got %q", got)
	}
}

func TestDigestDeterministic(t *testing.T) {
	a := RequestSignature("ORD-1", "1000", "1700000000000")
	b := RequestSignature("ORD-1", "1000", "1700000000000")
	if a != b {
		t.Errorf("Identical inputs produced different digests: %s vs %s", a, b)
	}
}

func TestDigestChangesWithAnyField(t *testing.T) {
	base := RequestSignature("ORD-1", "1000", "1700000000000")

	variants := map[string]string{
		"oid":       RequestSignature("ORD-2", "1000", "1700000000000"),
		"price":     RequestSignature("ORD-1", "1001", "1700000000000"),
		"timestamp": RequestSignature("ORD-1", "1000", "1700000000001"),
	}

	for field, got := range variants {
		if got == base {
			t.Errorf("Changing %s did not change the signature", field)
		}
	}
}

func TestDigestOrderSensitive(t *testing.T) {
	forward := Digest(Field{"oid", "ORD-1"}, Field{"price", "1000"})
	reversed := Digest(Field{"price", "1000"}, Field{"oid", "ORD-1"})
	if forward == reversed {
		t.Error("Reordering fields must change the digest")
	}
}

func TestMerchantKeyDigest(t *testing.T) {
	got := MerchantKeyDigest(testSignKey)
	want := "fd54e5bf84b8da52821530ff279cd733a40a4a0aeffeff56fedb01fd060dd659"
	if got != want {
		t.Errorf("MerchantKeyDigest() = %s, want %s", got, want)
	}
}

func TestRequestVerificationEmbedsKey(t *testing.T) {
	got := RequestVerification("ORD-1", "1000", testSignKey, "1700000000000")
	want := "ae870efb97726ce837cad8145a11f5040b449c11f7b8194c13761d2d31c4dfd0"
	if got != want {
		t.Errorf("RequestVerification() = %s, want %s", got, want)
	}
	if got == RequestSignature("ORD-1", "1000", "1700000000000") {
		t.Error("Verification must differ from the signature without the key")
	}
}

func TestAuthDigestsDiffer(t *testing.T) {
	sig := AuthSignature("tok-123", "1700000000000")
	ver := AuthVerification("tok-123", testSignKey, "1700000000000")
	if sig == ver {
		t.Error("AuthSignature and AuthVerification must not collide")
	}
}
