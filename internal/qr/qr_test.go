package qr

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestDataURI(t *testing.T) {
	uri, err := DataURI("bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq")
	if err != nil {
		t.Fatalf("DataURI failed: %v", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("expected a PNG data URI, got %q", uri[:min(len(uri), 40)])
	}

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("payload does not look like a PNG")
	}
}
