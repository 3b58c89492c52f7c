package labreport

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
)

// QRDataURI encodes content as a QR code PNG (error correction level H)
// and returns it as a data URI usable in an <img> tag.
func QRDataURI(content string, size int) (template.URL, error) {
	if content == "" {
		return "", fmt.Errorf("qr: empty content")
	}
	code, err := qr.Encode(content, qr.H, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("qr encode: %w", err)
	}
	return scaledPNG(code, size, size)
}

// BarcodeDataURI encodes content as a Code128 barcode PNG.
func BarcodeDataURI(content string, width, height int) (template.URL, error) {
	if content == "" {
		return "", fmt.Errorf("code128: empty content")
	}
	code, err := code128.Encode(content)
	if err != nil {
		return "", fmt.Errorf("code128 encode: %w", err)
	}
	return scaledPNG(code, width, height)
}

func scaledPNG(code barcode.Barcode, width, height int) (template.URL, error) {
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return "", fmt.Errorf("scale barcode: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return "", fmt.Errorf("png encode: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}
