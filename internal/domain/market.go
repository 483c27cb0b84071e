package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Outcomes exactos que usa el CLOB para mercados binarios.
const (
	OutcomeYes = "Yes"
	OutcomeNo  = "No"
)

// Market representa un mercado de predicción en Polymarket.
// Se construye tanto desde el CLOB (/markets) como desde los eventos de Gamma.
type Market struct {
	ConditionID string
	QuestionID  string
	Question    string
	Description string
	Slug        string
	EndDate     time.Time
	Volume      float64
	Tokens      []Token
	Active      bool
	Closed      bool

	// Campos de Gamma. Outcomes y ClobTokenIDs llegan serializados como JSON
	// (p.ej. "[\"Up\",\"Down\"]") y se parsean con ParseStringList.
	AcceptingOrders bool
	Outcomes        string
	ClobTokenIDs    string
}

// Token es uno de los lados del mercado.
type Token struct {
	TokenID string
	Outcome string  // "Yes" | "No" en mercados binarios del CLOB
	Price   float64 // último precio informado por el listado
}

// MarketPage es una página del listado paginado del CLOB.
// NextCursor vacío indica que no hay más páginas.
type MarketPage struct {
	Markets    []Market
	NextCursor string
}

// Event agrupa mercados relacionados en Gamma.
type Event struct {
	ID      string
	Title   string
	Slug    string
	Closed  bool
	Markets []Market
}

// EventFilter son los filtros soportados por Gamma /events.
type EventFilter struct {
	TagID         string
	ExcludeTagIDs []string
	Closed        bool
	Limit         int
}

// TokenByOutcome busca el token con el outcome exacto (case-sensitive).
func (m Market) TokenByOutcome(outcome string) (Token, bool) {
	for _, t := range m.Tokens {
		if t.Outcome == outcome {
			return t, true
		}
	}
	return Token{}, false
}

// YesToken devuelve el token YES del mercado.
func (m Market) YesToken() (Token, bool) {
	return m.TokenByOutcome(OutcomeYes)
}

// NoToken devuelve el token NO del mercado.
func (m Market) NoToken() (Token, bool) {
	return m.TokenByOutcome(OutcomeNo)
}

// ParseStringList decodifica una lista JSON de strings. Gamma a veces la envía
// como array y a veces como string con el array serializado dentro.
func ParseStringList(raw string) ([]string, error) {
	if raw == "" {
		return nil, fmt.Errorf("domain.ParseStringList: empty input")
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list, nil
	}

	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err != nil {
		return nil, fmt.Errorf("domain.ParseStringList: %w", err)
	}
	if err := json.Unmarshal([]byte(inner), &list); err != nil {
		return nil, fmt.Errorf("domain.ParseStringList: nested: %w", err)
	}
	return list, nil
}

// TruncateQuestion devuelve la pregunta del mercado truncada a maxLen runas.
// Si la pregunta está vacía usa los primeros caracteres del conditionID como fallback.
func TruncateQuestion(question, conditionID string, maxLen int) string {
	q := question
	if q == "" {
		q = conditionID
		if r := []rune(conditionID); len(r) > 20 {
			q = string(r[:20]) + "..."
		}
	}
	return truncateRunes(q, maxLen)
}

// truncateRunes corta s a maxLen runas contando los "..." finales.
// Con maxLen < 4 no hay sitio para el sufijo y se corta sin él.
func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
