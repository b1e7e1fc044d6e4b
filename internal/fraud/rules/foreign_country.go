package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fraudengine/internal/contracts"
	"fraudengine/internal/fraud"
	"fraudengine/internal/fraud/datarequest"
)

// MetadataKeyCountry is the transaction metadata key the country check reads.
const MetadataKeyCountry = "Country"

// ForeignCountryRule triggers when the transaction's country metadata differs
// from the allowed country. The comparison is case-insensitive, and a missing
// key defaults to the allowed country: absence of evidence is treated as
// compliant, not as unknown.
type ForeignCountryRule struct {
	allowedCountry string
	riskScore      decimal.Decimal
}

func NewForeignCountryRule(allowedCountry string, riskScore decimal.Decimal) ForeignCountryRule {
	return ForeignCountryRule{allowedCountry: allowedCountry, riskScore: riskScore}
}

func (ForeignCountryRule) Name() string { return "ForeignCountryRule" }

func (ForeignCountryRule) DataNeeds(contracts.TransactionReceived) []datarequest.Descriptor {
	return nil
}

func (r ForeignCountryRule) Evaluate(_ context.Context, ectx *fraud.Context, _ *datarequest.Registry) (fraud.EvaluationResult, error) {
	country, ok := ectx.Transaction.Metadata[MetadataKeyCountry]
	if !ok {
		country = r.allowedCountry
	}

	if !strings.EqualFold(country, r.allowedCountry) {
		return fraud.Triggered(
			r.Name(),
			r.riskScore,
			fmt.Sprintf("Transaction from foreign country: %s", country),
		), nil
	}
	return fraud.NotTriggered(r.Name()), nil
}
