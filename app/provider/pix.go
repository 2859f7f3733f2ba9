package provider

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/yeqown/go-qrcode"
)

// qrCodeDataURL renders a PIX copy-paste code as an inline image so the
// client can show the QR without a second round trip.
func qrCodeDataURL(text string) (string, error) {
	qrc, err := qrcode.New(text)
	if err != nil {
		return "", fmt.Errorf("render pix qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return "", fmt.Errorf("render pix qr code: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func base64ImageDataURL(encoded string) string {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" || strings.HasPrefix(encoded, "data:") {
		return encoded
	}
	return "data:image/png;base64," + encoded
}

// withQuery appends key/value pairs to a return URL, keeping any query it
// already carries.
func withQuery(rawURL string, pairs ...string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			q.Set(pairs[i], pairs[i+1])
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
