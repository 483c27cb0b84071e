package domain

// OrderBook representa el libro de órdenes de un token.
type OrderBook struct {
	TokenID string
	Bids    []BookEntry // ordenados mayor a menor precio
	Asks    []BookEntry // ordenados menor a mayor precio
}

// BookEntry es un nivel de precio en el orderbook.
type BookEntry struct {
	Price float64
	Size  float64
}

// BestBid devuelve el mayor bid, o 0 si no hay bids.
func (ob OrderBook) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk devuelve el menor ask, o 0 si no hay asks.
func (ob OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// CompleteSetDepth devuelve cuántos sets completos (un token de cada lado)
// se pueden comprar al best ask de ambos books sin barrer niveles.
func CompleteSetDepth(a, b OrderBook) float64 {
	if len(a.Asks) == 0 || len(b.Asks) == 0 {
		return 0
	}
	return min(a.Asks[0].Size, b.Asks[0].Size)
}
