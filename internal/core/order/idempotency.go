package order

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/example/shopsync/internal/models"
)

// keyNamespace scopes idempotency keys to this application.
var keyNamespace = uuid.MustParse("7a8f1f3c-2d54-4b8e-9c61-0f5264657273")

// IdempotencyKey derives a stable key from the order's content. The same
// order always yields the same key, so a duplicate create attempt is
// recognizable on the supplier side even when the ledger is stale.
func IdempotencyKey(o *models.Order) string {
	lines := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, fmt.Sprintf("%s:%d:%.2f", l.SKU, l.Quantity, l.Price))
	}
	sort.Strings(lines)

	content := fmt.Sprintf("%s|%s|%.2f|%s", o.ID, o.Number, o.Total, strings.Join(lines, ","))
	return uuid.NewSHA1(keyNamespace, []byte(content)).String()
}
