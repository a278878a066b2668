package image

import "strings"

// USD per image.
var dallePrices = map[string]float64{
	"standard/1024x1024": 0.040,
	"standard/1792x1024": 0.080,
	"standard/1024x1792": 0.080,
	"hd/1024x1024":       0.080,
	"hd/1792x1024":       0.120,
	"hd/1024x1792":       0.120,
}

var imagenPrices = map[string]float64{
	"imagen-4.0-generate-001":       0.04,
	"imagen-4.0-ultra-generate-001": 0.06,
	"imagen-4.0-fast-generate-001":  0.02,
	"imagen-3.0-generate-002":       0.03,
}

// Cost returns the USD price of one image, or 0 when unknown.
func Cost(provider, model, size, quality string) float64 {
	switch provider {
	case ProviderDalle:
		return dallePrices[strings.ToLower(quality)+"/"+strings.ToLower(size)]
	case ProviderImagen:
		return imagenPrices[strings.ToLower(model)]
	default:
		return 0
	}
}
