package shared

import "fmt"

// StockSnapshotKey builds redis keys for cached availability snapshots.
func StockSnapshotKey(variantID int64) string {
	return fmt.Sprintf("stock:variant:%d:snapshot", variantID)
}
