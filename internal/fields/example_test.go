package fields_test

import (
	"fmt"

	"zbtools/internal/fields"
	"zbtools/pkg/models"
)

func ExampleResolver_Resolve() {
	aliases := fields.DefaultAliases()
	lr := fields.NewResolver(aliases.LRNumber)

	invoiceFields := []models.CustomField{
		{Label: "Transport", Value: "VRL Logistics"},
		{Label: "LR No.", Value: "VRL-20931"},
	}

	value, ok := lr.Resolve(invoiceFields)
	fmt.Println(value, ok)
	// Output: VRL-20931 true
}
