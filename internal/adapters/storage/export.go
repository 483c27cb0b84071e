package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// WriteLedgerJSON vuelca el ledger a un fichero JSON indentado a 2 espacios.
func WriteLedgerJSON(path string, export domain.LedgerExport) error {
	if export.Orders == nil {
		export.Orders = []domain.OrderRecord{}
	}
	if export.Positions == nil {
		export.Positions = []domain.PositionRecord{}
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.WriteLedgerJSON: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("storage.WriteLedgerJSON: write %q: %w", path, err)
	}
	return nil
}
