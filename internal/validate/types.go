package validate

import "github.com/roach88/sqlra/internal/schema"

// Type is the coarse type of an expression.
type Type int

const (
	TypeUnknown Type = iota
	TypeNumber
	TypeString
	TypeNull
)

func (t Type) String() string {
	switch t {
	case TypeNumber:
		return "NUMBER"
	case TypeString:
		return "STRING"
	case TypeNull:
		return "NULL"
	default:
		return "UNKNOWN"
	}
}

// Comparable reports whether values of types a and b may be compared: either
// is NULL, both match, or one is UNKNOWN and the other NUMBER or STRING.
func Comparable(a, b Type) bool {
	switch {
	case a == TypeNull || b == TypeNull:
		return true
	case a == b:
		return true
	case a == TypeUnknown:
		return b == TypeNumber || b == TypeString
	case b == TypeUnknown:
		return a == TypeNumber || a == TypeString
	}
	return false
}

// typeOfColumn maps a declared column type to a coarse type.
func typeOfColumn(declared string) Type {
	switch schema.CategoryOf(declared) {
	case schema.CategoryNumeric:
		return TypeNumber
	case schema.CategoryText:
		return TypeString
	default:
		return TypeUnknown
	}
}
