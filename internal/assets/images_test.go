package assets

import (
	"bytes"
	"testing"
)

func TestDecodeBase64ImageRaw(t *testing.T) {
	got, err := DecodeBase64Image("aGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeBase64Image() error = %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("DecodeBase64Image() = %q, want hello", got)
	}
}

func TestDecodeBase64ImageDataURL(t *testing.T) {
	got, err := DecodeBase64Image("data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeBase64Image() error = %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("DecodeBase64Image() = %q, want hello", got)
	}
}

func TestDecodeBase64ImageInvalid(t *testing.T) {
	if _, err := DecodeBase64Image("!!not base64!!"); err == nil {
		t.Fatal("DecodeBase64Image() expected error, got nil")
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	url := DataURL([]byte("hello"), "image/png")
	if url != "data:image/png;base64,aGVsbG8=" {
		t.Fatalf("DataURL() = %q", url)
	}
	back, err := DecodeBase64Image(url)
	if err != nil {
		t.Fatalf("DecodeBase64Image() error = %v", err)
	}
	if !bytes.Equal(back, []byte("hello")) {
		t.Fatalf("round trip = %q, want hello", back)
	}
}

func TestDataURLEmpty(t *testing.T) {
	if got := DataURL(nil, "image/png"); got != "" {
		t.Fatalf("DataURL(nil) = %q, want empty", got)
	}
}
