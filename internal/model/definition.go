package model

// ExtractionSpec selects how the entity engine derives lookup text for one
// entity type. Strategies are tried in a fixed order: SourceField, Extractor,
// FallbackField, Template. The first one that yields text wins.
type ExtractionSpec struct {
	// SourceField names a transaction field to read directly.
	SourceField string `mapstructure:"source_field"`
	// Extractor names a registered extractor function.
	Extractor string `mapstructure:"extractor"`
	// FallbackField names a field to read when the above produce nothing.
	FallbackField string `mapstructure:"fallback_field"`
	// Template is a substitution pattern like "{bank}-{accountNumber}".
	// It only applies when every referenced field is present.
	Template string `mapstructure:"template"`
}

// EntityDefinition drives the generic Stage 4 engine: one definition per
// entity type, loaded from configuration at startup and read-only afterwards.
type EntityDefinition struct {
	ID          string         `mapstructure:"id"`
	RegistryKey EntityType     `mapstructure:"registry_key"`
	Extraction  ExtractionSpec `mapstructure:"extraction"`
	Priority    int            `mapstructure:"priority"`
	Enabled     bool           `mapstructure:"enabled"`
}
