package domain

import (
	"regexp"
	"strings"
	"time"
)

// Direction es el sentido que pregunta un mercado cripto.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionBoth Direction = "both"
)

// CryptoMarketTags es la clasificación de un mercado cripto de 15 minutos.
type CryptoMarketTags struct {
	Symbol    string // BTC, ETH, SOL, ...
	Direction Direction
	Timeframe string // siempre "15min"
}

// CryptoPrice es el precio spot de un subyacente.
type CryptoPrice struct {
	Symbol    string
	Price     float64
	Change24h float64 // porcentaje
	Timestamp time.Time
}

var timeframePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)15\s*min`),
	regexp.MustCompile(`(?i)15\s*minute`),
	regexp.MustCompile(`(?i)quarter\s*hour`),
	regexp.MustCompile(`0:15`),
	regexp.MustCompile(`(?i)fifteen\s*min`),
}

// El orden importa: se devuelve la primera coincidencia.
var cryptoSymbols = []struct {
	term   string
	symbol string
}{
	{"btc", "BTC"}, {"bitcoin", "BTC"},
	{"eth", "ETH"}, {"ethereum", "ETH"},
	{"sol", "SOL"}, {"solana", "SOL"},
	{"ada", "ADA"}, {"cardano", "CARDANO"},
	{"dot", "DOT"}, {"polkadot", "POLKADOT"},
	{"avax", "AVAX"}, {"avalanche", "AVALANCHE"},
	{"link", "LINK"}, {"chainlink", "CHAINLINK"},
	{"matic", "MATIC"}, {"polygon", "POLYGON"},
	{"doge", "DOGE"}, {"dogecoin", "DOGECOIN"},
	{"xrp", "XRP"}, {"ripple", "RIPPLE"},
}

var (
	upTerms   = []string{"up", "increase", "rise", "gain", "higher", "above", "pump"}
	downTerms = []string{"down", "decrease", "fall", "drop", "lower", "below", "dump"}
)

// ClassifyCryptoMarket detecta mercados cripto de 15 minutos con dirección.
// Las coincidencias son por substring, igual que el filtro de discovery original,
// así que "sol" también casa con "solution"; los falsos positivos se descartan
// más adelante cuando no hay precio spot para el símbolo.
func ClassifyCryptoMarket(question, description string) (CryptoMarketTags, bool) {
	text := strings.ToLower(question + " " + description)

	timeframe := ""
	for _, re := range timeframePatterns {
		if re.MatchString(text) {
			timeframe = "15min"
			break
		}
	}
	if timeframe == "" {
		return CryptoMarketTags{}, false
	}

	symbol := ""
	for _, cs := range cryptoSymbols {
		if strings.Contains(text, cs.term) {
			symbol = cs.symbol
			break
		}
	}
	if symbol == "" {
		return CryptoMarketTags{}, false
	}

	dir, ok := directionOf(text)
	if !ok {
		return CryptoMarketTags{}, false
	}

	return CryptoMarketTags{Symbol: symbol, Direction: dir, Timeframe: timeframe}, true
}

func directionOf(text string) (Direction, bool) {
	hasUp := containsAny(text, upTerms)
	hasDown := containsAny(text, downTerms)
	switch {
	case hasUp && hasDown:
		return DirectionBoth, true
	case hasUp:
		return DirectionUp, true
	case hasDown:
		return DirectionDown, true
	}
	return "", false
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// TradingPair devuelve el par spot en USDT para un símbolo (BTC → BTCUSDT).
func TradingPair(symbol string) string {
	return strings.ToUpper(symbol) + "USDT"
}
