package models

import "fmt"

// Classification is the closed label set a message can carry. Any other
// value coming back from the classifier is a contract violation at the
// collaborator boundary, never a business outcome.
type Classification string

const (
	ClassificationOrder   Classification = "Order"
	ClassificationInvoice Classification = "Invoice"
	ClassificationOther   Classification = "Other"
)

// ParseClassification validates a raw collaborator label against the
// closed set.
func ParseClassification(raw string) (Classification, error) {
	switch Classification(raw) {
	case ClassificationOrder, ClassificationInvoice, ClassificationOther:
		return Classification(raw), nil
	default:
		return "", fmt.Errorf("classification %q is outside the allowed set", raw)
	}
}

func (c Classification) IsOrder() bool {
	return c == ClassificationOrder
}

func (c Classification) String() string {
	return string(c)
}
