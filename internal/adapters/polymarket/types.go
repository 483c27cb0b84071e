package polymarket

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// flexBool acepta bool o string ("true"/"false"): Gamma no es consistente.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexDecimal acepta números JSON, strings numéricos, "" y null (→ 0).
type flexDecimal struct {
	decimal.Decimal
}

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		f.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	f.Decimal = d
	return nil
}

// --- CLOB API ---

// marketsResponse es la respuesta paginada de GET /markets.
type marketsResponse struct {
	Limit      int          `json:"limit"`
	Count      int          `json:"count"`
	NextCursor string       `json:"next_cursor"`
	Data       []clobMarket `json:"data"`
}

// clobMarket es un mercado del listado del CLOB.
type clobMarket struct {
	ConditionID     string      `json:"condition_id"`
	QuestionID      string      `json:"question_id"`
	Question        string      `json:"question"`
	Description     string      `json:"description"`
	MarketSlug      string      `json:"market_slug"`
	EndDateISO      string      `json:"end_date_iso"`
	Tokens          []clobToken `json:"tokens"`
	Active          bool        `json:"active"`
	Closed          bool        `json:"closed"`
	AcceptingOrders bool        `json:"accepting_orders"`
}

// clobToken representa un token (YES/NO) en el CLOB.
type clobToken struct {
	TokenID string      `json:"token_id"`
	Outcome string      `json:"outcome"`
	Price   flexDecimal `json:"price"`
	Winner  bool        `json:"winner"`
}

// midpointResponse es la respuesta de GET /midpoint.
type midpointResponse struct {
	Mid string `json:"mid"`
}

// orderBookResponse es la respuesta de GET /book.
type orderBookResponse struct {
	Market  string         `json:"market"`
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw es un nivel de precio raw de la API (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// --- Gamma API ---

// gammaEvent es un evento de GET /events con sus mercados anidados.
type gammaEvent struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Slug    string        `json:"slug"`
	Closed  flexBool      `json:"closed"`
	Markets []gammaMarket `json:"markets"`
}

// gammaMarket es un mercado de Gamma. Outcomes y clobTokenIds llegan como
// array o como string con el array serializado; se guardan en crudo.
type gammaMarket struct {
	ConditionID     string          `json:"conditionId"`
	Question        string          `json:"question"`
	Description     string          `json:"description"`
	Slug            string          `json:"slug"`
	EndDate         string          `json:"endDate"`
	Volume          flexDecimal     `json:"volume"`
	Active          flexBool        `json:"active"`
	Closed          flexBool        `json:"closed"`
	AcceptingOrders flexBool        `json:"acceptingOrders"`
	Outcomes        json.RawMessage `json:"outcomes"`
	ClobTokenIDs    json.RawMessage `json:"clobTokenIds"`
}
