package cart

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gofrs/uuid"
)

var lineNamespace = uuid.Must(uuid.FromString("8f3b6c2e-51a4-4d0e-9b7a-2c6e4f1d8a90"))

// LineKey derives the identity of a line from its configuration. The same
// product, size, flavor and set of customization selections always yield
// the same key, whatever order the customizations were given in.
func LineKey(productID, size, flavor string, customizations []Customization) string {
	selections := make([]string, 0, len(customizations))
	for _, c := range customizations {
		selections = append(selections, strconv.Quote(c.Name)+"="+strconv.Quote(c.Value))
	}
	sort.Strings(selections)

	parts := append([]string{strconv.Quote(productID), strconv.Quote(size), strconv.Quote(flavor)}, selections...)
	return uuid.NewV5(lineNamespace, strings.Join(parts, "|")).String()
}
