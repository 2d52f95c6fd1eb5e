// Package enrich attaches cosmetic data to shop records. It never
// touches identity or location fields.
package enrich

import (
	"hash/fnv"

	"shopatlas/internal/models"
)

// DefaultImages is the curated fallback image set used when the config
// does not supply its own URLs.
var DefaultImages = []string{
	"https://images.unsplash.com/photo-1488459716781-31db52582fe9",
	"https://images.unsplash.com/photo-1542838132-92c53300491e",
	"https://images.unsplash.com/photo-1506484381205-f7945653044d",
	"https://images.unsplash.com/photo-1464226184884-fa280b87c399",
	"https://images.unsplash.com/photo-1500937386664-56d1dfef3854",
}

// ImageEnricher assigns a placeholder image to shops that have none.
type ImageEnricher struct {
	images []string
}

// NewImageEnricher creates an enricher over the given image pool; an
// empty pool falls back to DefaultImages.
func NewImageEnricher(images []string) *ImageEnricher {
	if len(images) == 0 {
		images = DefaultImages
	}

	return &ImageEnricher{images: images}
}

// Apply assigns one image to each shop without images, picked
// deterministically from the pool by slug so reruns produce identical
// output. Returns the number of shops enriched.
func (e *ImageEnricher) Apply(shops []models.Shop) int {
	enriched := 0

	for i := range shops {
		if len(shops[i].Images) > 0 {
			continue
		}

		shops[i].Images = []string{e.pick(shops[i].Slug)}
		enriched++
	}

	return enriched
}

func (e *ImageEnricher) pick(slug string) string {
	h := fnv.New32a()
	h.Write([]byte(slug))

	return e.images[int(h.Sum32())%len(e.images)]
}
