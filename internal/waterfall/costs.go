package waterfall

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/prospect-cli/internal/model"
)

// DefaultCosts is the per-lookup unit cost in USD for each provider,
// matching current list pricing. Override via a cost table file when vendor
// contracts change.
var DefaultCosts = map[model.Source]float64{
	model.SourceHunter:        0.012,
	model.SourceDropcontact:   0.016,
	model.SourceSnov:          0.010,
	model.SourceProspeo:       0.0198,
	model.SourceTomba:         0.012,
	model.SourceFindymail:     0.040,
	model.SourceAnymailfinder: 0.030,
	model.SourceRocketReach:   0.080,
	model.SourceZeroBounce:    0.004,
}

// LoadCosts reads a YAML cost table and merges it over the defaults.
// Providers absent from the file keep their default cost.
func LoadCosts(path string) (map[model.Source]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "waterfall: read cost table %s", path)
	}

	// The YAML has a top-level "costs" key.
	var wrapper struct {
		Costs map[string]float64 `yaml:"costs"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "waterfall: parse cost table")
	}

	costs := make(map[model.Source]float64, len(DefaultCosts))
	for source, cost := range DefaultCosts {
		costs[source] = cost
	}
	for name, cost := range wrapper.Costs {
		if cost < 0 {
			return nil, eris.Errorf("waterfall: negative cost for %s", name)
		}
		costs[model.Source(name)] = cost
	}
	return costs, nil
}
