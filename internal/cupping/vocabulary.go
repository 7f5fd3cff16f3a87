package cupping

import "strings"

// Attribute names, in form order.
const (
	Fragrance  = "fragrance"
	Aroma      = "aroma"
	Flavor     = "flavor"
	Aftertaste = "aftertaste"
	Acidity    = "acidity"
	Sweetness  = "sweetness"
	Mouthfeel  = "mouthfeel"
)

var aromatics = []string{
	"floral", "jazmín", "frutal", "cítrico", "frutos rojos", "frutos secos",
	"chocolate", "caramelo", "miel", "vainilla", "especias", "herbal",
	"tostado", "cereal", "terroso",
}

var vocabularies = map[string][]string{
	Fragrance:  aromatics,
	Aroma:      aromatics,
	Flavor:     append(append([]string{}, aromatics...), "panela", "té negro", "vino", "tabaco"),
	Aftertaste: {"limpio", "dulce", "persistente", "corto", "seco", "astringente", "amargo"},
	Acidity:    {"cítrica", "málica", "tartárica", "fosfórica", "láctica", "brillante", "suave", "plana"},
	Mouthfeel:  {"ligero", "medio", "pesado", "sedoso", "cremoso", "jugoso", "aceitoso", "áspero"},
}

// Vocabulary returns the allowed descriptor tags for attribute. Sweetness has none.
func Vocabulary(attribute string) []string {
	tags := vocabularies[attribute]
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// Vocabularies returns every attribute's tags, keyed by attribute name.
func Vocabularies() map[string][]string {
	out := make(map[string][]string, len(vocabularies))
	for attr := range vocabularies {
		out[attr] = Vocabulary(attr)
	}
	return out
}

func allowed(attribute, tag string) bool {
	for _, candidate := range vocabularies[attribute] {
		if strings.EqualFold(candidate, tag) {
			return true
		}
	}
	return false
}
