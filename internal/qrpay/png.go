package qrpay

import (
	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered QR edge length in pixels.
const DefaultSize = 256

// PNG encodes a payload into a QR code PNG. Both the Swiss QR-bill and the
// EPC spec call for medium error correction.
func PNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}
