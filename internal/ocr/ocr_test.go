package ocr

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestTesseract_RunsCommand(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	// echo prints its arguments, standing in for the real binary.
	ocr := &Tesseract{Command: "echo", Timeout: 5 * time.Second}

	text, err := ocr.ExtractText(context.Background(), []byte("fake image"))
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if !strings.HasSuffix(text, " stdout") || !strings.Contains(text, "receipt-") {
		t.Errorf("text = %q, want temp file path followed by stdout", text)
	}
}

func TestTesseract_MissingCommand(t *testing.T) {
	ocr := &Tesseract{Command: "definitely-not-a-real-ocr-binary"}
	if _, err := ocr.ExtractText(context.Background(), []byte("x")); err == nil {
		t.Error("expected error for missing command")
	}
}

func TestFunc(t *testing.T) {
	var e Extractor = Func(func(_ context.Context, image []byte) (string, error) {
		return string(image), nil
	})
	got, err := e.ExtractText(context.Background(), []byte("Milk | $3.99"))
	if err != nil || got != "Milk | $3.99" {
		t.Errorf("ExtractText = %q, %v", got, err)
	}
}
