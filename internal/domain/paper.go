package domain

import "time"

// Side es el lado de una orden simulada.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Opposite devuelve el lado contrario.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// PositionStatus es el estado de una posición simulada: open → closed, sin vuelta atrás.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

// Order es una orden de paper trading. Inmutable una vez creada.
type Order struct {
	ID             string
	MarketID       string
	MarketQuestion string
	Side           Side
	Size           float64 // cantidad de tokens
	Price          float64 // precio por token
	Timestamp      time.Time
	CryptoPrice    *float64 // precio del subyacente al crear la orden (auditoría)
	CryptoSymbol   string
}

// Notional devuelve size × price.
func (o Order) Notional() float64 {
	return o.Size * o.Price
}

// Position envuelve una orden de entrada y, al cerrarse, una de salida.
type Position struct {
	ID             string
	MarketID       string
	MarketQuestion string
	Entry          Order
	Exit           *Order
	Status         PositionStatus
}

// PnL devuelve el P&L realizado. Sólo está definido para posiciones cerradas.
func (p Position) PnL() (float64, bool) {
	if p.Status != PositionClosed || p.Exit == nil {
		return 0, false
	}
	if p.Entry.Side == Buy {
		return (p.Exit.Price - p.Entry.Price) * p.Entry.Size, true
	}
	return (p.Entry.Price - p.Exit.Price) * p.Entry.Size, true
}

// OrderRequest son los parámetros de PlaceOrder.
// TokenID es opcional: si se informa, la orden mueve inventario de ese token.
type OrderRequest struct {
	MarketID       string
	MarketQuestion string
	Side           Side
	Size           float64
	Price          float64
	TokenID        string
	CryptoPrice    *float64
	CryptoSymbol   string
}

// LedgerStats es el resumen calculado sobre las posiciones cerradas.
type LedgerStats struct {
	TotalTrades    int     `json:"total_trades"`
	TotalPnL       float64 `json:"total_pnl"`
	WinRate        float64 `json:"win_rate"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	CurrentBalance float64 `json:"current_balance"`
	TotalReturn    float64 `json:"total_return"`
}

// LedgerExport es el volcado completo del ledger. No existe ruta de recarga.
type LedgerExport struct {
	InitialBalance float64          `json:"initial_balance"`
	CurrentBalance float64          `json:"current_balance"`
	Orders         []OrderRecord    `json:"orders"`
	Positions      []PositionRecord `json:"positions"`
	Stats          LedgerStats      `json:"stats"`
}

// LedgerSnapshot es el resumen de un run tal como quedó persistido en el trade log.
type LedgerSnapshot struct {
	RunID          string
	SavedAt        time.Time
	InitialBalance float64
	CurrentBalance float64
	Orders         int
	Positions      int
	Stats          LedgerStats
}

// OrderRecord es la forma serializada de Order (timestamp en segundos unix).
type OrderRecord struct {
	ID             string   `json:"id"`
	MarketID       string   `json:"market_id"`
	MarketQuestion string   `json:"market_question"`
	Side           string   `json:"side"`
	Size           float64  `json:"size"`
	Price          float64  `json:"price"`
	Timestamp      float64  `json:"timestamp"`
	CryptoPrice    *float64 `json:"crypto_price"`
	CryptoSymbol   *string  `json:"crypto_symbol"`
}

// PositionRecord es la forma serializada de Position.
type PositionRecord struct {
	ID             string       `json:"id"`
	MarketID       string       `json:"market_id"`
	MarketQuestion string       `json:"market_question"`
	EntryOrder     OrderRecord  `json:"entry_order"`
	ExitOrder      *OrderRecord `json:"exit_order"`
	Status         string       `json:"status"`
}

// Record convierte la orden a su forma serializada.
func (o Order) Record() OrderRecord {
	r := OrderRecord{
		ID:             o.ID,
		MarketID:       o.MarketID,
		MarketQuestion: o.MarketQuestion,
		Side:           string(o.Side),
		Size:           o.Size,
		Price:          o.Price,
		Timestamp:      float64(o.Timestamp.UnixNano()) / 1e9,
		CryptoPrice:    o.CryptoPrice,
	}
	if o.CryptoSymbol != "" {
		sym := o.CryptoSymbol
		r.CryptoSymbol = &sym
	}
	return r
}

// Record convierte la posición a su forma serializada.
func (p Position) Record() PositionRecord {
	r := PositionRecord{
		ID:             p.ID,
		MarketID:       p.MarketID,
		MarketQuestion: p.MarketQuestion,
		EntryOrder:     p.Entry.Record(),
		Status:         string(p.Status),
	}
	if p.Exit != nil {
		exit := p.Exit.Record()
		r.ExitOrder = &exit
	}
	return r
}
