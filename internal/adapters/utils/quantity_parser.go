package utils

import (
	"github.com/hailam/gdsview/internal/ports"
	"github.com/hailam/gdsview/internal/utils"
)

// UtilQuantityParser adapts utils.ParseQuantity to the ports.QuantityParser
// interface, the viewer's budget-flag parser in place of the teacher's
// output file size flag.
type UtilQuantityParser struct{}

// NewUtilQuantityParser creates a new quantity parser adapter.
func NewUtilQuantityParser() ports.QuantityParser {
	return &UtilQuantityParser{}
}

// Parse uses the underlying utility function to parse the quantity string.
func (p *UtilQuantityParser) Parse(spec string) (int64, error) {
	return utils.ParseQuantity(spec)
}
