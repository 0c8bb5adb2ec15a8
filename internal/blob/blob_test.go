package blob

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		wantOK      bool
	}{
		{contentType: "image/jpeg", want: "jpg", wantOK: true},
		{contentType: "image/png; charset=binary", want: "png", wantOK: true},
		{contentType: "IMAGE/HEIC", want: "heic", wantOK: true},
		{contentType: "application/pdf", wantOK: false},
		{contentType: "", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := ExtensionFor(tt.contentType)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ExtensionFor(%q) = %q, %v; want %q, %v", tt.contentType, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestReceiptKey(t *testing.T) {
	got := ReceiptKey("u1", "b1", "png", time.UnixMilli(1700000000000))
	if got != "receipts/u1/b1-1700000000000.png" {
		t.Errorf("ReceiptKey = %q", got)
	}
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	data := []byte{0x89, 'P', 'N', 'G'}
	url, err := store.Put(ctx, "receipts/u1/b1-1.png", "image/png", data)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Errorf("url = %q, want file:// URL", url)
	}

	key, ok := KeyFromURL(store.BaseURL(), url)
	if !ok || key != "receipts/u1/b1-1.png" {
		t.Fatalf("KeyFromURL = %q, %v", key, ok)
	}
	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get = %v, want %v", got, data)
	}

	if _, err := store.Get(ctx, "receipts/none.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.Put(ctx, "../escape.png", "image/png", data); err == nil {
		t.Error("expected key outside the directory to fail")
	}
}

func TestOpen_Local(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(context.Background(), "local", dir, S3Config{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := store.(*LocalStore); !ok {
		t.Errorf("Open(local) = %T, want *LocalStore", store)
	}
}
