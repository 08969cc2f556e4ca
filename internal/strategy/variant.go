package strategy

import (
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-options/pkg/errors"
)

// Variant is the closed set of entry rules.
type Variant string

const (
	// VariantReversion fades deviations from the moving average.
	VariantReversion Variant = "reversion"
	// VariantDirectional follows deviations from the moving average.
	VariantDirectional Variant = "directional"
	// VariantConfirmedReversion fades deviations only when momentum agrees with the stretch.
	VariantConfirmedReversion Variant = "confirmed_reversion"
)

// AllVariants lists every supported variant.
var AllVariants = []Variant{
	VariantReversion,
	VariantDirectional,
	VariantConfirmedReversion,
}

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	v := Variant(s)
	if err := v.Validate(); err != nil {
		return "", err
	}

	return v, nil
}

// Validate returns ErrCodeInvalidVariant for names outside the closed set.
func (v Variant) Validate() error {
	switch v {
	case VariantReversion, VariantDirectional, VariantConfirmedReversion:
		return nil
	}

	return errors.Newf(errors.ErrCodeInvalidVariant, "unknown strategy variant %q", string(v))
}

// NeedsMomentum reports whether the variant reads the momentum tracker.
func (v Variant) NeedsMomentum() bool {
	return v == VariantConfirmedReversion
}

// JSONSchema restricts the variant to its enum values.
func (Variant) JSONSchema() *jsonschema.Schema {
	enum := make([]any, 0, len(AllVariants))
	for _, v := range AllVariants {
		enum = append(enum, string(v))
	}

	return &jsonschema.Schema{
		Type:        "string",
		Enum:        enum,
		Description: "Entry rule used by the strategy",
	}
}
