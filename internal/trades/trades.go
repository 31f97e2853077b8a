// Package trades maps user-facing trade categories to places provider search
// parameters and display industry labels.
package trades

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Mapping holds the provider search parameters and display label for a trade.
type Mapping struct {
	PlaceType string `yaml:"place_type"`
	Keyword   string `yaml:"keyword"`
	Industry  string `yaml:"industry"`
}

// fallbackPlaceType is used for trades with no dedicated provider type.
const fallbackPlaceType = "general_contractor"

var builtins = map[string]Mapping{
	"carpenter":        {PlaceType: "general_contractor", Keyword: "carpenter joiner", Industry: "Carpenters & Joiners"},
	"builder":          {PlaceType: "general_contractor", Keyword: "builder construction", Industry: "General Builders"},
	"electrician":      {PlaceType: "electrician", Keyword: "electrician electrical contractor", Industry: "Electricians"},
	"plumber":          {PlaceType: "plumber", Keyword: "plumber plumbing services", Industry: "Plumbers"},
	"roofer":           {PlaceType: "roofing_contractor", Keyword: "roofer roofing services", Industry: "Roofing Specialists"},
	"painter":          {PlaceType: "painter", Keyword: "painter decorator", Industry: "Decorators"},
	"landscaper":       {PlaceType: "general_contractor", Keyword: "landscaper gardening", Industry: "Landscapers"},
	"plasterer":        {PlaceType: "general_contractor", Keyword: "plasterer plastering services", Industry: "Plasterers"},
	"groundworker":     {PlaceType: "general_contractor", Keyword: "groundwork excavation", Industry: "Groundworkers"},
	"bricklayer":       {PlaceType: "general_contractor", Keyword: "bricklayer masonry", Industry: "Bricklayers & Stonemasons"},
	"heating_engineer": {PlaceType: "plumber", Keyword: "heating engineer boiler", Industry: "Heating Engineers"},
	"kitchen_fitter":   {PlaceType: "general_contractor", Keyword: "kitchen fitter", Industry: "Kitchen Fitters"},
	"bathroom_fitter":  {PlaceType: "general_contractor", Keyword: "bathroom fitter", Industry: "Property Maintenance"},
	"tiler":            {PlaceType: "general_contractor", Keyword: "tiler tiling services", Industry: "Tilers"},
	"decorator":        {PlaceType: "painter", Keyword: "decorator painting services", Industry: "Decorators"},
}

// Mapper resolves trade categories to provider search parameters.
type Mapper struct {
	table map[string]Mapping
}

// NewMapper returns a Mapper backed by the built-in trade table.
func NewMapper() *Mapper {
	table := make(map[string]Mapping, len(builtins))
	for k, v := range builtins {
		table[k] = v
	}
	return &Mapper{table: table}
}

// NewMapperWithOverrides loads a YAML file of trade → Mapping entries and
// merges it over the built-in table.
func NewMapperWithOverrides(path string) (*Mapper, error) {
	m := NewMapper()
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "trades: read overrides %s", path)
	}

	overrides := map[string]Mapping{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrapf(err, "trades: parse overrides %s", path)
	}

	for k, v := range overrides {
		m.table[strings.ToLower(k)] = v
	}
	return m, nil
}

// Lookup resolves a trade category. Unknown categories degrade gracefully to
// the generic contractor type with the raw category as keyword and a
// title-cased label; Lookup never fails.
func (m *Mapper) Lookup(trade string) Mapping {
	if mapping, ok := m.table[strings.ToLower(trade)]; ok {
		return mapping
	}
	return Mapping{
		PlaceType: fallbackPlaceType,
		Keyword:   trade,
		Industry:  titleCase(trade),
	}
}

var titler = cases.Title(language.BritishEnglish)

// titleCase title-cases each underscore-separated segment, keeping the
// underscores ("roof_wizard" → "Roof_Wizard").
func titleCase(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		parts[i] = titler.String(p)
	}
	return strings.Join(parts, "_")
}
