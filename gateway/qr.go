package gateway

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// encodeQRPNG renders the given content as a 256px PNG and returns it as a
// data URL suitable for direct embedding in an <img> tag.
func encodeQRPNG(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
