package cleaner

import (
	"regexp"
	"strings"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

var embeddedCodePattern = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)

// PlantNormalizer resolves raw plant labels to a canonical plant code or
// model.Unknown.
type PlantNormalizer struct {
	aliases map[string]string
	codes   map[string]bool
	order   []string
	display map[string]string
}

// NewPlantNormalizer builds a normalizer from the plant registry
func NewPlantNormalizer(registry *config.PlantRegistry) *PlantNormalizer {
	n := &PlantNormalizer{
		aliases: registry.AliasTable(),
		codes:   make(map[string]bool),
		order:   registry.Codes(),
		display: make(map[string]string),
	}
	for _, code := range n.order {
		n.codes[code] = true
		n.display[code] = registry.DisplayName(code)
	}
	return n
}

// Normalize maps a raw label to a plant code. The first matching rule wins:
// blank input, "alias == code" composites, exact alias, exact code, then the
// first embedded 4-digit token if it is a known code. Aliases are tried
// before digit extraction because labels carry unrelated facility numbers.
func (n *PlantNormalizer) Normalize(raw interface{}) string {
	if isNullToken(raw) {
		return model.Unknown
	}

	label := strings.ToUpper(strings.TrimSpace(toString(raw)))

	if strings.Contains(label, "==") {
		parts := strings.SplitN(label, "==", 3)
		left := strings.TrimSpace(parts[0])
		right := strings.TrimSpace(parts[1])

		if code, ok := n.aliases[left]; ok {
			return code
		}
		if code, ok := n.aliases[right]; ok {
			return code
		}
		if n.codes[right] {
			return right
		}
	}

	if code, ok := n.aliases[label]; ok {
		return code
	}

	if n.codes[label] {
		return label
	}

	if m := embeddedCodePattern.FindStringSubmatch(label); m != nil && n.codes[m[1]] {
		return m[1]
	}

	return model.Unknown
}

// DisplayName returns the site name of a code, or the code itself
func (n *PlantNormalizer) DisplayName(code string) string {
	if name, ok := n.display[code]; ok {
		return name
	}
	return code
}

// IsKnown reports whether code is a registered plant code
func (n *PlantNormalizer) IsKnown(code string) bool {
	return n.codes[code]
}

// Codes returns the registered plant codes in registry order
func (n *PlantNormalizer) Codes() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}
