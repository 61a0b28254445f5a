package domain

// AutofillQuery is one field-level question against a tenant's documents.
type AutofillQuery struct {
	Question     string
	OriginalText string
	TenantID     string
	Field        *FormField
}

// EnhancedQuestion appends the field's original free text to the question
// before embedding, which tends to sharpen retrieval for terse field names.
func (q AutofillQuery) EnhancedQuestion() string {
	if q.OriginalText == "" {
		return q.Question
	}
	return q.Question + "\n\nContext: " + q.OriginalText
}
