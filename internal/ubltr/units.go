package ubltr

// DefaultUnitLabel is used when a line carries no quantity element.
const DefaultUnitLabel = "Adet"

// unitLabels maps UN/ECE Recommendation 20 unit codes common in UBL-TR
// invoices to their Turkish display labels.
var unitLabels = map[string]string{
	"C62": "Adet",
	"NIU": "Adet",
	"KGM": "Kg",
	"GRM": "Gr",
	"LTR": "Litre",
	"MTR": "Metre",
	"MTK": "m²",
	"MTQ": "m³",
	"DAY": "Gün",
	"MON": "Ay",
	"SET": "Set",
	"BX":  "Kutu",
}

// TranslateUnit returns the display label for code. Codes outside the
// table are returned unchanged.
func TranslateUnit(code string) string {
	if label, ok := unitLabels[code]; ok {
		return label
	}
	return code
}
