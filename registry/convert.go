package registry

import (
	"github.com/shopspring/decimal"

	"github.com/openobs/validator/service"
)

// toRange converts the wire payload into the resolver's range type.
func (p *numericRangePayload) toRange() *service.NumericRange {
	nr := &service.NumericRange{Precise: p.Precise}
	if p.LowAbsolute != nil {
		d := decimal.NewFromFloat(*p.LowAbsolute)
		nr.LowAbsolute = &d
	}
	if p.HiAbsolute != nil {
		d := decimal.NewFromFloat(*p.HiAbsolute)
		nr.HiAbsolute = &d
	}
	return nr
}
