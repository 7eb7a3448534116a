package categorize

// mccCategories maps ISO 18245 merchant category codes to the category
// vocabulary. Only the codes seen in production registries are listed;
// unknown codes fall through to the Unknown ladder rung.
var mccCategories = map[string]string{
	"5411": "groceries",
	"5541": "transportation",
	"5812": "dining",
	"5813": "entertainment",
	"5814": "dining",
	"5912": "healthcare",
	"5942": "shopping",
	"5999": "shopping",
	"4111": "transportation",
	"4121": "transportation",
	"4814": "utilities",
	"4899": "utilities",
	"4900": "utilities",
	"5311": "shopping",
	"5462": "cafe",
	"5499": "groceries",
	"7832": "entertainment",
	"8011": "healthcare",
	"8021": "healthcare",
	"8062": "healthcare",
	"8099": "healthcare",
}

// healthcareMCC reports whether a code falls in the medical provider range.
func healthcareMCC(code string) bool {
	return code >= "8011" && code <= "8099"
}
