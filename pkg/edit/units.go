package edit

import (
	"strings"

	"github.com/samber/lo"
)

// BaseUnit is the unit all solids store their lengths in.
const BaseUnit = "mm"

// Unit is one entry of the length conversion table.
type Unit struct {
	Name   string
	Factor float64 // base units per unit
}

// Units is the length conversion table, with aliases.
var Units = []Unit{
	{"nm", 1e-6},
	{"um", 1e-3},
	{"micron", 1e-3},
	{"mm", 1},
	{"millimeter", 1},
	{"cm", 10},
	{"centimeter", 10},
	{"dm", 100},
	{"m", 1000},
	{"meter", 1000},
	{"km", 1e6},
	{"in", 25.4},
	{"inch", 25.4},
	{"ft", 304.8},
	{"foot", 304.8},
	{"feet", 304.8},
	{"yd", 914.4},
	{"yard", 914.4},
	{"mi", 1609344},
	{"mile", 1609344},
}

// ConversionFactor returns the number of base units in one name unit.
func ConversionFactor(name string) (float64, bool) {
	u, ok := lo.Find(Units, func(u Unit) bool { return strings.EqualFold(u.Name, name) })
	return u.Factor, ok
}
