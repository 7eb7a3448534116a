package rules

import "github.com/molino/molino/internal/model"

// DefaultSet returns the built-in rule set, used when no rule files are
// configured. It covers the statement vocabulary of the supported Mexican
// banks; deployments layer bank-specific files on top.
func DefaultSet() *Set {
	return &Set{
		TypeRules:         DefaultTypeRules(),
		CounterpartyRules: DefaultCounterpartyRules(),
		NoisePatterns:     DefaultNoisePatterns(),
		Limits:            ExtractionLimits{MinLength: 3, MaxLength: 80},
		Definitions:       DefaultEntityDefinitions(),
		CollectionTerms:   DefaultCollectionTerms(),
	}
}

// DefaultTypeRules returns the built-in Stage 1 rules, highest priority first.
func DefaultTypeRules() []TypeRule {
	return []TypeRule{
		{
			Name:             "Payroll Deposit",
			Patterns:         []string{`\b(NOMINA|PAGO\s*NOMINA|ABONO\s*NOMINA)\b`},
			Type:             model.TypeIncome,
			Direction:        model.DirectionIn,
			MerchantExpected: false,
			Confidence:       0.95,
			Priority:         100,
		},
		{
			Name:             "SPEI Received",
			Patterns:         []string{`SPEI\s*RECIBIDO`, `ABONO\s*SPEI`},
			Type:             model.TypeSPEI,
			Direction:        model.DirectionIn,
			MerchantExpected: false,
			Confidence:       0.95,
			Priority:         95,
		},
		{
			Name:             "SPEI Sent",
			Patterns:         []string{`SPEI\s*ENVIADO`, `CARGO\s*SPEI`},
			Type:             model.TypeSPEI,
			Direction:        model.DirectionOut,
			MerchantExpected: true,
			Confidence:       0.95,
			Priority:         94,
		},
		{
			Name:             "Internet Banking Transfer",
			Patterns:         []string{`\bSWEB\b`, `TRANSFERENCIA\s*INTERNET`, `BANCA\s*ELECTRONICA`},
			RequiredField:    "beneficiaryName",
			Type:             model.TypeSWEB,
			Direction:        model.DirectionOut,
			MerchantExpected: true,
			Confidence:       0.85,
			Priority:         90,
		},
		{
			Name:             "Domiciliacion",
			Patterns:         []string{`DOMICILIACION`, `COBRANZA`, `CARGO\s*RECURRENTE`},
			Type:             model.TypeDomiciliacion,
			Direction:        model.DirectionOut,
			MerchantExpected: true,
			Confidence:       0.90,
			Priority:         88,
		},
		{
			Name:             "ATM Withdrawal",
			Patterns:         []string{`RETIRO\s*(CAJERO|ATM)`, `DISPOSICION\s*(DE\s*)?EFECTIVO`},
			Type:             model.TypeCardWithdrawal,
			Direction:        model.DirectionOut,
			MerchantExpected: false,
			Confidence:       0.90,
			Priority:         85,
		},
		{
			Name:             "Card Purchase",
			Patterns:         []string{`COMPRA\s*(CON\s*)?TARJETA`, `CARGO\s*TARJETA`, `CARD\s*PURCHASE`},
			Type:             model.TypeCardPurchase,
			Direction:        model.DirectionOut,
			MerchantExpected: true,
			Confidence:       0.90,
			Priority:         80,
		},
		{
			Name:             "POS Purchase",
			Patterns:         []string{`\bPOS\b`, `TERMINAL\s*PUNTO\s*DE\s*VENTA`},
			Type:             model.TypePOSPurchase,
			Direction:        model.DirectionOut,
			MerchantExpected: true,
			Confidence:       0.85,
			Priority:         75,
		},
		{
			Name:             "Deposit",
			Patterns:         []string{`DEPOSITO`, `ABONO\s*EN\s*EFECTIVO`},
			Type:             model.TypeDeposit,
			Direction:        model.DirectionIn,
			MerchantExpected: false,
			Confidence:       0.85,
			Priority:         70,
		},
		{
			Name:             "Interest",
			Patterns:         []string{`\bINTERESES?\b`},
			Type:             model.TypeInterest,
			Direction:        model.DirectionIn,
			MerchantExpected: false,
			Confidence:       0.90,
			Priority:         65,
		},
		{
			// Fee lines must both name a commission and carry the bank's
			// service wording, so this one uses require_all.
			Name:             "Service Fee",
			Patterns:         []string{`COMISION`, `(COBRO|CARGO|IVA)`},
			RequireAll:       true,
			Type:             model.TypeFee,
			Direction:        model.DirectionOut,
			MerchantExpected: false,
			Confidence:       0.90,
			Priority:         60,
		},
	}
}

// DefaultCounterpartyRules returns the built-in aggregator rules.
func DefaultCounterpartyRules() []CounterpartyRule {
	return []CounterpartyRule{
		{
			Name:           "Mercado Pago",
			CounterpartyID: "mercadopago",
			Category:       "marketplace",
			Patterns:       []string{`MERCADO\s*PAGO`, `MERCADOPAGO`},
			HintAnchor:     `MERCADO\s*PAGO\s*\*?`,
			Confidence:     0.90,
			Priority:       100,
		},
		{
			Name:           "PayPal",
			CounterpartyID: "paypal",
			Category:       "payment-processor",
			Patterns:       []string{`PAYPAL`},
			HintAnchor:     `PAYPAL\s*\*`,
			Confidence:     0.90,
			Priority:       95,
		},
		{
			Name:           "Clip",
			CounterpartyID: "clip",
			Category:       "payment-processor",
			Patterns:       []string{`PAGO\s*CLIP`, `\bCLIP\s*MX\b`},
			HintAnchor:     `CLIP\s*(MX)?\s*\*?`,
			Confidence:     0.85,
			Priority:       90,
		},
		{
			Name:           "Amazon Marketplace",
			CounterpartyID: "amazon-mx",
			Category:       "marketplace",
			Patterns:       []string{`AMZN\s*MKTP`, `AMAZON\s*MX`},
			HintAnchor:     `AMZN\s*MKTP\s*(MX)?\s*\*?`,
			Confidence:     0.85,
			Priority:       85,
		},
		{
			Name:           "OXXO Pay",
			CounterpartyID: "oxxo-pay",
			Category:       "collection-agent",
			Patterns:       []string{`OXXO\s*PAY`},
			HintAnchor:     `OXXO\s*PAY\s*`,
			Confidence:     0.85,
			Priority:       80,
		},
	}
}

// DefaultCollectionTerms are the generic labels that carry no merchant
// identity on domiciliacion lines.
func DefaultCollectionTerms() []string {
	return []string{"COBRANZA", "DOMICILIACION", "CARGO AUTOMATICO", "PAGO DE SERVICIO"}
}

// DefaultNoisePatterns returns the built-in Stage 3 noise rules, highest
// priority first.
func DefaultNoisePatterns() []NoisePattern {
	return []NoisePattern{
		{Name: "card-suffix", Pattern: `\*{2,}\s*\d{4}`, Priority: 100},
		{Name: "store-number", Pattern: `#\s*\d+`, Priority: 95},
		{Name: "reference", Pattern: `\bREF\.?\s*:?\s*[A-Z0-9]+\b`, Priority: 90},
		{Name: "authorization", Pattern: `\bAUT\.?\s*:?\s*\d+\b`, Priority: 85},
		{Name: "folio", Pattern: `\bFOLIO\s*:?\s*\d+\b`, Priority: 80},
		{Name: "date-token", Pattern: `\b\d{2}/\d{2}(/\d{2,4})?\b`, Priority: 75},
		{Name: "amount", Pattern: `\$\s*[\d,]+(\.\d{2})?`, Priority: 70},
		{Name: "channel", Pattern: `\b(INTERNET|BANCA\s*MOVIL|APP)\b`, KeepAsContext: true, Priority: 65},
		{Name: "long-digits", Pattern: `\b\d{5,}\b`, Priority: 60},
	}
}

// DefaultEntityDefinitions returns the built-in Stage 4 definitions, one per
// registry, highest priority first.
func DefaultEntityDefinitions() []model.EntityDefinition {
	return []model.EntityDefinition{
		{
			ID:          "merchant",
			RegistryKey: model.EntityMerchant,
			Extraction: model.ExtractionSpec{
				SourceField:   "cleanMerchant",
				FallbackField: "beneficiaryName",
			},
			Priority: 100,
			Enabled:  true,
		},
		{
			ID:          "bank",
			RegistryKey: model.EntityBank,
			Extraction: model.ExtractionSpec{
				Extractor: "bankFromSourceFile",
			},
			Priority: 90,
			Enabled:  true,
		},
		{
			ID:          "account",
			RegistryKey: model.EntityAccount,
			Extraction: model.ExtractionSpec{
				Template: "{bank}-{type}",
			},
			Priority: 80,
			Enabled:  true,
		},
		{
			ID:          "category",
			RegistryKey: model.EntityCategory,
			Extraction: model.ExtractionSpec{
				SourceField: "counterpartyCategory",
			},
			Priority: 70,
			Enabled:  true,
		},
	}
}
