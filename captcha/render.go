package captcha

import (
	"encoding/base64"
)

// Renderer turns a code into the image payload returned by /captchaImage.
// Production deployments plug in an image generator.
type Renderer interface {
	Render(code string) (string, error)
}

// PlainRenderer returns the code itself, base64 encoded. It exists for
// development and automated tests where no image is needed.
type PlainRenderer struct{}

func (PlainRenderer) Render(code string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(code)), nil
}
