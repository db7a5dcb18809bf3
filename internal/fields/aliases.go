package fields

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var defaultLabels []byte

// Aliases lists, per logical field, the labels or keys it may appear under.
// Firms name their custom fields differently, so these are data, not code.
type Aliases struct {
	Division      []string `yaml:"division"`
	Agency        []string `yaml:"agency"`
	LRNumber      []string `yaml:"lr_number"`
	LRDate        []string `yaml:"lr_date"`
	Transport     []string `yaml:"transport"`
	Brand         []string `yaml:"brand"`
	Design        []string `yaml:"design"`
	Size          []string `yaml:"size"`
	Packing       []string `yaml:"packing"`
	SOLineLink    []string `yaml:"so_line_link"`
	AdvanceUnused []string `yaml:"advance_unused"`
	PriceItem     []string `yaml:"price_item"`
	PriceSize     []string `yaml:"price_size"`
	PricePacking  []string `yaml:"price_packing"`
	PriceRate     []string `yaml:"price_rate"`
}

// DefaultAliases returns the built-in alias lists.
func DefaultAliases() Aliases {
	var a Aliases
	if err := yaml.Unmarshal(defaultLabels, &a); err != nil {
		panic(fmt.Sprintf("fields: embedded labels.yaml: %v", err))
	}
	return a
}

// LoadAliases reads alias overrides from a YAML file. Lists missing from the file
// keep their defaults. An empty path returns the defaults.
func LoadAliases(path string) (Aliases, error) {
	const op = "LoadAliases"

	aliases := DefaultAliases()
	if path == "" {
		return aliases, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Aliases{}, fmt.Errorf("%s: %w", op, err)
	}
	var override Aliases
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Aliases{}, fmt.Errorf("%s: parse %s: %w", op, path, err)
	}
	aliases.merge(override)
	return aliases, nil
}

func (a *Aliases) merge(o Aliases) {
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	pick(&a.Division, o.Division)
	pick(&a.Agency, o.Agency)
	pick(&a.LRNumber, o.LRNumber)
	pick(&a.LRDate, o.LRDate)
	pick(&a.Transport, o.Transport)
	pick(&a.Brand, o.Brand)
	pick(&a.Design, o.Design)
	pick(&a.Size, o.Size)
	pick(&a.Packing, o.Packing)
	pick(&a.SOLineLink, o.SOLineLink)
	pick(&a.AdvanceUnused, o.AdvanceUnused)
	pick(&a.PriceItem, o.PriceItem)
	pick(&a.PriceSize, o.PriceSize)
	pick(&a.PricePacking, o.PricePacking)
	pick(&a.PriceRate, o.PriceRate)
}

// Group returns the aliases for a firm's grouping field, nil for no grouping.
func (a Aliases) Group(groupBy string) []string {
	switch groupBy {
	case "division":
		return a.Division
	case "agency":
		return a.Agency
	default:
		return nil
	}
}
