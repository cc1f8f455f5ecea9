package nonprofit

import (
	"context"
	"regexp"

	"github.com/banyan-labs/lead-optimizer/internal/model"
)

var (
	einDashed = regexp.MustCompile(`^\d{2}-\d{7}$`)
	einPlain  = regexp.MustCompile(`^\d{9}$`)
)

// ValidEINFormat reports whether an identifier matches either accepted EIN
// shape: zero-padded 9 digits, or 2 digits, a dash, and 7 digits.
func ValidEINFormat(ein string) bool {
	return einDashed.MatchString(ein) || einPlain.MatchString(ein)
}

// EINFormatSource validates a supplied tax identifier's shape. Format
// validity is recorded on the result but is never treated as proof of
// nonprofit status, so this source never confirms.
type EINFormatSource struct{}

// NewEINFormatSource creates the EIN format-validation source.
func NewEINFormatSource() *EINFormatSource { return &EINFormatSource{} }

func (*EINFormatSource) Name() string { return "IRS" }

func (*EINFormatSource) Applicable(_, ein string) bool { return ein != "" }

func (*EINFormatSource) Check(_ context.Context, _, ein string) (*model.NonprofitStatus, bool) {
	valid := ValidEINFormat(ein)
	return &model.NonprofitStatus{EINValidFormat: &valid}, false
}
