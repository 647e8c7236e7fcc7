package domain

// FieldSpec describes one field the extraction model must return for a
// document kind.
type FieldSpec struct {
	Name        string
	Type        string
	Description string
}

// ExtractionSchema returns the field layout expected from a document of the
// given kind. The schema drives both the extraction prompt and the export
// column set. Unknown documents have no schema and cannot be extracted.
func ExtractionSchema(kind DocumentKind) []FieldSpec {
	switch kind {
	case KindReceipt:
		return []FieldSpec{
			{Name: "merchant_name", Type: "STRING", Description: "the name of the store, vendor, or service provider as shown on the receipt"},
			{Name: "total_amount", Type: "FLOAT", Description: "the total amount charged or paid as printed on the receipt"},
		}
	case KindT4:
		return []FieldSpec{
			{Name: "employer_name", Type: "STRING", Description: "the name of the employer listed on the T4 slip"},
			{Name: "box_14_employment_income", Type: "FLOAT", Description: "the total employment income reported in Box 14 of the T4 slip"},
			{Name: "box_22_income_tax_deducted", Type: "FLOAT", Description: "the income tax deducted as reported in Box 22 of the T4 slip"},
		}
	case KindID:
		return []FieldSpec{
			{Name: "full_name", Type: "STRING", Description: "the full legal name as printed on the ID document"},
			{Name: "date_of_birth", Type: "STRING", Description: "the date of birth of the individual as shown on the ID document"},
			{Name: "id_number", Type: "STRING", Description: "the identification number, e.g., driver's license number or passport number"},
		}
	case KindUnknown:
		return nil
	default:
		return nil
	}
}
