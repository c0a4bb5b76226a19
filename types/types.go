// Package types implements the nominal type lattice described in spec §3.1:
// Null | Text | Bool | Num | Int | Array(T) | Generic | Failable(T).
package types

import "fmt"

// Kind is the tag of the Type sum.
type Kind int

const (
	Null Kind = iota
	Text
	Bool
	Num
	Int
	Array
	Generic
	Failable
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "Null"
	case Text:
		return "Text"
	case Bool:
		return "Bool"
	case Num:
		return "Num"
	case Int:
		return "Int"
	case Array:
		return "Array"
	case Generic:
		return "Generic"
	case Failable:
		return "Failable"
	default:
		return "?"
	}
}

// Type is a value of the nominal lattice. Elem is populated for Array and
// Failable and nil otherwise.
type Type struct {
	Kind Kind
	Elem *Type
}

func New(k Kind) *Type { return &Type{Kind: k} }

func NewArray(elem *Type) *Type    { return &Type{Kind: Array, Elem: elem} }
func NewFailable(elem *Type) *Type { return &Type{Kind: Failable, Elem: elem} }

var (
	TNull     = New(Null)
	TText     = New(Text)
	TBool     = New(Bool)
	TNum      = New(Num)
	TInt      = New(Int)
	TGeneric  = New(Generic)
)

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case Array:
		return fmt.Sprintf("Array(%s)", t.Elem)
	case Failable:
		return fmt.Sprintf("%s?", t.Elem)
	default:
		return t.Kind.String()
	}
}

// IsNumeric reports whether t is Int or Num.
func (t *Type) IsNumeric() bool {
	return t != nil && (t.Kind == Int || t.Kind == Num)
}

// Equal reports structural equality. Generic is equal only to itself; callers
// performing monomorphization substitution should resolve Generic to a
// concrete type before comparing (spec §3.1 invariant 1).
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Array, Failable:
		return Equal(a.Elem, b.Elem)
	default:
		return true
	}
}

// IsSubtype reports a <: b under the one non-identity subtyping rule in the
// lattice: Array(concrete) <: Array(Generic) (spec §3.1).
func IsSubtype(a, b *Type) bool {
	if Equal(a, b) {
		return true
	}
	if a.Kind == Array && b.Kind == Array && b.Elem.Kind == Generic {
		return true
	}
	return false
}

// Validate rejects the two lattice invariants that must be enforced at
// construction time: Array(Array(_)) and Failable(Failable(_)).
func Validate(t *Type) error {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case Array:
		if t.Elem != nil && t.Elem.Kind == Array {
			return fmt.Errorf("nested array types are not supported")
		}
	case Failable:
		if t.Elem != nil && t.Elem.Kind == Failable {
			return fmt.Errorf("failable types cannot nest")
		}
	}
	return nil
}

// BinaryNumeric computes the result type of a numeric binary operator over
// a and b, applying the Int/Num widening rule (spec §3.1, §4.2): mixed
// Int/Num yields Num, same-kind stays that kind.
func BinaryNumeric(a, b *Type) (*Type, bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return nil, false
	}
	if a.Kind == Num || b.Kind == Num {
		return TNum, true
	}
	return TInt, true
}
