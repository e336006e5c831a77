package climages

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

var ErrUnsupportedFormat = errors.New("seules les images jpg, png et gif sont supportées")

// Resize réduit l'image à maxWidth en gardant le ratio
func Resize(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxWidth <= 0 || width <= maxWidth {
		return img
	}

	ratio := float64(maxWidth) / float64(width)
	newWidth := maxWidth
	newHeight := max(int(float64(height)*ratio), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}

// Processed résultat du traitement d'une image envoyée
type Processed struct {
	Data        []byte
	Ext         string
	ContentType string
	Width       int
	Height      int
}

// Process décode, redimensionne et ré-encode l'image.
// jpeg en qualité 85, png conservé pour la transparence, gif inchangé.
func Process(data []byte, maxWidth int) (*Processed, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("erreur décodage image: %w", err)
	}

	if format == "gif" {
		b := img.Bounds()
		return &Processed{Data: data, Ext: ".gif", ContentType: "image/gif", Width: b.Dx(), Height: b.Dy()}, nil
	}

	resized := Resize(img, maxWidth)
	var buf bytes.Buffer
	out := &Processed{Width: resized.Bounds().Dx(), Height: resized.Bounds().Dy()}

	switch format {
	case "png":
		err = png.Encode(&buf, resized)
		out.Ext, out.ContentType = ".png", "image/png"
	case "jpeg":
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
		out.Ext, out.ContentType = ".jpg", "image/jpeg"
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("erreur encodage image: %w", err)
	}

	out.Data = buf.Bytes()
	return out, nil
}
