package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

// Strategy define el contrato para descubrir y analizar mercados.
// Cada estrategia encapsula una lógica de trading diferente.
//
// Analyze puede llamarse concurrentemente desde el worker pool del scanner,
// por lo que las implementaciones deben ser seguras para uso concurrente.
type Strategy interface {
	// Name devuelve el identificador único de la estrategia.
	Name() string

	// Description devuelve una descripción legible con los parámetros activos.
	Description() string

	// Discover devuelve el universo de mercados que la estrategia sabe analizar.
	Discover(ctx context.Context, lister ports.MarketLister) ([]domain.Market, error)

	// Analyze evalúa un mercado y devuelve cero o una señal.
	// Nunca devuelve error: los fallos por mercado se loguean y se saltan.
	Analyze(ctx context.Context, market domain.Market) []domain.TradingSignal

	Enable()
	Disable()
	Enabled() bool

	// Stats devuelve el contador de oportunidades y el estado.
	Stats() Stats
}

// Stats son las estadísticas de una estrategia.
type Stats struct {
	Name               string `json:"name"`
	Enabled            bool   `json:"enabled"`
	OpportunitiesFound int64  `json:"opportunities_found"`
}

// state es el estado mutable común: flag enabled y contador de oportunidades.
// Cada estrategia lo embebe y lo posee en exclusiva.
type state struct {
	name    string
	enabled atomic.Bool
	found   atomic.Int64
	logger  *slog.Logger
}

func (s *state) init(name string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.name = name
	s.logger = logger.With("strategy", name)
	s.enabled.Store(true)
}

// Name implementa Strategy.
func (s *state) Name() string { return s.name }

// Enable implementa Strategy.
func (s *state) Enable() { s.enabled.Store(true) }

// Disable implementa Strategy.
func (s *state) Disable() { s.enabled.Store(false) }

// Enabled implementa Strategy.
func (s *state) Enabled() bool { return s.enabled.Load() }

// Stats implementa Strategy.
func (s *state) Stats() Stats {
	return Stats{
		Name:               s.name,
		Enabled:            s.enabled.Load(),
		OpportunitiesFound: s.found.Load(),
	}
}

// Registry mantiene las estrategias disponibles indexadas por nombre.
type Registry map[string]Strategy

// NewRegistry crea un registry vacío.
func NewRegistry() Registry {
	return make(Registry)
}

// Register añade una estrategia al registry.
func (r Registry) Register(s Strategy) {
	r[s.Name()] = s
}

// Get devuelve la estrategia por nombre.
func (r Registry) Get(name string) (Strategy, bool) {
	s, ok := r[name]
	return s, ok
}

// Names devuelve los nombres registrados en orden alfabético.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select devuelve las estrategias pedidas, en el orden dado.
func (r Registry) Select(names []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("strategy.Select: unknown strategy %q (available: %v)", name, r.Names())
		}
		out = append(out, s)
	}
	return out, nil
}

// listAllMarkets pagina el listado del CLOB hasta agotar el cursor.
func listAllMarkets(ctx context.Context, lister ports.MarketLister) ([]domain.Market, error) {
	var all []domain.Market
	cursor := ""
	for {
		page, err := lister.GetMarkets(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("list markets: %w", err)
		}
		all = append(all, page.Markets...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}
