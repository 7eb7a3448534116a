package resolve

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/molino/molino/internal/model"
)

// ExtractorFunc derives lookup text from a transaction. Named extractors
// cover derivations a plain field read cannot express.
type ExtractorFunc func(txn *model.Transaction) string

// namedExtractors is the closed set of extractor functions entity
// definitions may reference.
var namedExtractors = map[string]ExtractorFunc{
	"bankFromSourceFile": bankFromSourceFile,
}

var templateField = regexp.MustCompile(`\{([a-zA-Z]+)\}`)

// searchText derives the lookup text for one entity definition. Strategies
// are tried in order: source field, named extractor, fallback field,
// template. Empty return means resolution for this entity type is skipped.
func searchText(spec model.ExtractionSpec, txn *model.Transaction) string {
	if spec.SourceField != "" {
		if v, ok := txn.Field(spec.SourceField); ok {
			return v
		}
	}
	if spec.Extractor != "" {
		if fn, ok := namedExtractors[spec.Extractor]; ok {
			if v := fn(txn); v != "" {
				return v
			}
		}
	}
	if spec.FallbackField != "" {
		if v, ok := txn.Field(spec.FallbackField); ok {
			return v
		}
	}
	if spec.Template != "" {
		if v, ok := expandTemplate(spec.Template, txn); ok {
			return v
		}
	}
	return ""
}

// expandTemplate substitutes {field} references. The derivation only holds
// when every referenced field is present.
func expandTemplate(template string, txn *model.Transaction) (string, bool) {
	complete := true
	expanded := templateField.ReplaceAllStringFunc(template, func(ref string) string {
		name := ref[1 : len(ref)-1]
		v, ok := txn.Field(name)
		if !ok {
			complete = false
			return ""
		}
		return v
	})
	if !complete {
		return "", false
	}
	return expanded, true
}

// bankFromSourceFile derives a bank name from a statement filename such as
// "bbva-2024-03.pdf" or "estado_santander_marzo.txt".
func bankFromSourceFile(txn *model.Transaction) string {
	base := filepath.Base(txn.SourceFile)
	if base == "." || base == "" {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))

	for _, part := range strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	}) {
		if part == "" || strings.IndexFunc(part, isDigit) >= 0 {
			continue
		}
		if strings.EqualFold(part, "estado") || strings.EqualFold(part, "cuenta") {
			continue
		}
		return part
	}
	return ""
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
