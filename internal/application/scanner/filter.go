package scanner

import (
	"sort"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// FilterConfig acota el universo de mercados que descubre cada estrategia.
type FilterConfig struct {
	// MaxMarkets limita los mercados analizados por estrategia (0 = sin límite).
	// Al recortar se conservan los de mayor volumen.
	MaxMarkets int
	// MinVolume descarta mercados con volumen informado menor (0 = sin filtro).
	MinVolume float64
}

// Filter aplica los filtros configurados sobre el universo descubierto.
type Filter struct {
	cfg FilterConfig
}

// NewFilter crea un Filter con la configuración dada.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Apply deduplica por conditionID, filtra por volumen y recorta a MaxMarkets.
func (f *Filter) Apply(markets []domain.Market) []domain.Market {
	seen := make(map[string]bool, len(markets))
	result := make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if m.ConditionID != "" {
			if seen[m.ConditionID] {
				continue
			}
			seen[m.ConditionID] = true
		}
		if f.cfg.MinVolume > 0 && m.Volume < f.cfg.MinVolume {
			continue
		}
		result = append(result, m)
	}

	if f.cfg.MaxMarkets > 0 && len(result) > f.cfg.MaxMarkets {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Volume > result[j].Volume
		})
		result = result[:f.cfg.MaxMarkets]
	}
	return result
}
