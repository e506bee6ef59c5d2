package images

import (
	"net/url"
	"strings"

	"github.com/JonMunkholm/cardinventory/internal/core"
)

const tcgplayerCDN = "https://tcgplayer-cdn.tcgplayer.com/product/"

// Thumbnails resolves the preview image for a card.
type Thumbnails struct {
	BaseURL string
}

// URL prefers the branded scan in the image database, keyed by set code
// and collector number, then the TCGPlayer product image. Empty when
// neither is known.
func (t Thumbnails) URL(setCode, number, tcgID *string) string {
	sc, num := nonEmpty(setCode), nonEmpty(number)
	if sc != "" && num != "" {
		return strings.TrimRight(t.BaseURL, "/") + URLPrefix + "/branded/" +
			url.PathEscape(sc) + "/" + url.PathEscape(num) + ".jpg"
	}
	if id := nonEmpty(tcgID); id != "" {
		return tcgplayerCDN + url.PathEscape(id) + "_in_1000x1000.jpg"
	}
	return ""
}

// ForItem resolves a stored item's thumbnail.
func (t Thumbnails) ForItem(it core.Item) string {
	return t.URL(it.SetCode, it.Number, it.TCGPlayerProductID)
}

// ForRow resolves a staged row's thumbnail.
func (t Thumbnails) ForRow(r core.CanonicalRow) string {
	return t.URL(r.Value(core.FieldSetCode), r.Value(core.FieldNumber), r.Value(core.FieldTCGPlayerID))
}

func nonEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
