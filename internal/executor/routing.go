package executor

import (
	"fmt"
	"strings"

	"github.com/seo-hub/backend/internal/store"
)

// RoutingError reports SQL that does not resolve to exactly one store.
type RoutingError struct {
	Stores []store.StoreID
}

func (e *RoutingError) Error() string {
	if len(e.Stores) == 0 {
		return "query references no known store prefix"
	}

	names := make([]string, len(e.Stores))
	for i, id := range e.Stores {
		names[i] = string(id)
	}
	return fmt.Sprintf("query references multiple stores: %s", strings.Join(names, ", "))
}

// ResolveStore decides which store a statement runs against. Statements
// referencing zero or more than one store are rejected; cross-store joins
// are impossible because the stores are separate databases.
func ResolveStore(sqlText string) (store.StoreID, error) {
	detected := store.DetectStores(sqlText)
	if len(detected) != 1 {
		return "", &RoutingError{Stores: detected}
	}
	return detected[0], nil
}
