package prompt

import (
	"fmt"
	"strings"

	"github.com/regtechlab/docrag/internal/core/domain"
)

// Sentinel is the exact string the model is instructed to return when
// the context carries no grounded answer. The postprocessing step maps
// it to an empty result.
const Sentinel = "Not specified in the documents"

// BuildContext renders the reranked chunks into a delimited context
// block. Document content stays inside the block so it cannot rewrite
// the surrounding instructions.
func BuildContext(chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[doc%d] file=%s\n%s\n\n", i+1, chunk.FileName, chunk.Content)
	}
	return strings.TrimSpace(b.String())
}

// BuildFieldPrompt builds a type-specific grounded prompt for one form
// field. The instructions demand exact option text for choice fields
// and the sentinel string when nothing in the context answers the
// question.
func BuildFieldPrompt(field *domain.FormField, documentContext, originalQuestion string) string {
	var b strings.Builder

	b.WriteString("You are a precise document analyzer for form autofill.\n\n")
	fmt.Fprintf(&b, "Field Name: %s\n", field.Name)
	fmt.Fprintf(&b, "Field Type: %s\n", field.Type)
	fmt.Fprintf(&b, "Required: %t\n", field.Required)
	if originalQuestion != "" {
		fmt.Fprintf(&b, "Question: %s\n", originalQuestion)
	}

	b.WriteString("\nDocument Context:\n---\n")
	b.WriteString(documentContext)
	b.WriteString("\n---\n\n")
	b.WriteString(fieldInstructions(field))

	return b.String()
}

func fieldInstructions(field *domain.FormField) string {
	switch field.Type {
	case domain.FieldSelect:
		return `Select the MOST appropriate option from the list below based on the document.

Available Options:
` + optionList(field.Options) + `

CRITICAL:
- Return ONLY the exact option text from the list above
- If multiple options seem relevant, choose the best match
- If no option matches, return: "` + Sentinel + `"
- Do not create new options or modify existing ones`

	case domain.FieldRadio:
		return `Select ONE option from the list below based on the document.

Available Options:
` + optionList(field.Options) + `

CRITICAL:
- Return ONLY the exact option text from the list above
- Choose the single best match
- If unclear, return: "` + Sentinel + `"
- Do not create new options`

	case domain.FieldCheckbox:
		return `Select ALL applicable options from the list below based on the document.

Available Options:
` + optionList(field.Options) + `

CRITICAL:
- Return a JSON array of selected options, e.g., ["Option 1", "Option 3"]
- Only select options that are explicitly mentioned or clearly implied
- If none apply, return: []
- Use exact option text from the list above`

	case domain.FieldEmail:
		return `Extract the email address from the document.
- Return ONLY the email in valid format (e.g., contact@company.com)
- If no email is found, return: "` + Sentinel + `"
- Do not generate fake emails`

	case domain.FieldPhone:
		return `Extract the phone number from the document.
- Return the phone number in a standard format (e.g., +1 (555) 000-0000)
- If no phone is found, return: "` + Sentinel + `"
- Do not generate fake numbers`

	case domain.FieldNumber:
		return `Extract the relevant number from the document.
- Return ONLY the numeric value
- If no number is found, return: "` + Sentinel + `"
- Do not generate or estimate numbers`

	case domain.FieldDate:
		return `Extract the relevant date from the document.
- Return the date in ISO format (YYYY-MM-DD) if possible
- If no date is found, return: "` + Sentinel + `"
- Do not generate or assume dates`

	default:
		return `Extract and return ONLY the relevant text information from the document.
- Use exact quotes and data from the document
- If no relevant information is found, return: "` + Sentinel + `"
- Do not generate or assume information`
	}
}

// BuildAutofillPrompt is the default prompt used when no form field
// metadata accompanies the question.
func BuildAutofillPrompt(question, documentContext string) string {
	var b strings.Builder
	b.WriteString("Based EXCLUSIVELY on the provided document context, analyze and respond to the following question:\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("Document Context:\n---\n")
	b.WriteString(documentContext)
	b.WriteString("\n---\n\n")
	b.WriteString(`CRITICAL INSTRUCTIONS:
- Use ONLY information explicitly stated in the provided document context
- Quote exact figures, percentages, dates, and statistics from the documents
- Use the document's exact terminology and technical language

IF NO RELEVANT INFORMATION AVAILABLE:
Return exactly: "` + Sentinel + `"`)
	return b.String()
}

func optionList(options []string) string {
	lines := make([]string, 0, len(options))
	for _, opt := range options {
		lines = append(lines, "- "+opt)
	}
	return strings.Join(lines, "\n")
}
