package produced

import (
	"fmt"
	"sort"
)

// TankClass is the vessel family a tank belongs to.
type TankClass string

const (
	ClassBBT TankClass = "BBT" // bright beer tank
	ClassFST TankClass = "FST" // fermentation/storage tank
	ClassRBT TankClass = "RBT" // return/reference tank, no level probe
)

var classOrder = map[TankClass]int{ClassBBT: 0, ClassFST: 1, ClassRBT: 2}

// Tank identifies one physical vessel.
type Tank struct {
	Class  TankClass
	Number int
}

func (t Tank) String() string {
	return fmt.Sprintf("%s%d", t.Class, t.Number)
}

// PlatoColumn is the stock-export column holding the tank's average Plato.
func (t Tank) PlatoColumn() string {
	return fmt.Sprintf("%s %d Average Plato", t.Class, t.Number)
}

// LevelColumn is the stock-export column holding the tank's level. The FST
// export carries a trailing space in this header and it must match exactly.
func (t Tank) LevelColumn() string {
	if t.Class == ClassFST {
		return fmt.Sprintf("FST%d Level ", t.Number)
	}
	return fmt.Sprintf("%s%d Level", t.Class, t.Number)
}

// MaterialColumn is the stock-export column holding the tank's material code.
func (t Tank) MaterialColumn() string {
	return fmt.Sprintf("%s%d Material", t.Class, t.Number)
}

// HasLevel reports whether the vessel class exposes a level reading.
func (t Tank) HasLevel() bool {
	return t.Class != ClassRBT
}

// Registry is the ordered set of vessels taking part in stock accounting.
type Registry []Tank

var (
	bbtTanks = []int{111, 112, 121, 132, 211, 212, 221, 222, 231, 232, 241, 242, 251, 252}
	fstTanks = []int{111, 112, 121, 122, 131, 132, 141, 142, 151, 152, 161, 171, 172,
		211, 212, 221, 222, 231, 232, 241, 242, 243}
	rbtTanks = []int{251, 252}
)

// DefaultRegistry returns the plant's vessels ordered by class then number.
func DefaultRegistry() Registry {
	reg := make(Registry, 0, len(bbtTanks)+len(fstTanks)+len(rbtTanks))
	for _, n := range bbtTanks {
		reg = append(reg, Tank{Class: ClassBBT, Number: n})
	}
	for _, n := range fstTanks {
		reg = append(reg, Tank{Class: ClassFST, Number: n})
	}
	for _, n := range rbtTanks {
		reg = append(reg, Tank{Class: ClassRBT, Number: n})
	}
	return reg.sorted()
}

// Class returns the registry's tanks of one class.
func (r Registry) Class(class TankClass) []Tank {
	var out []Tank
	for _, t := range r {
		if t.Class == class {
			out = append(out, t)
		}
	}
	return out
}

func (r Registry) sorted() Registry {
	out := append(Registry(nil), r...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return classOrder[out[i].Class] < classOrder[out[j].Class]
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// Validate checks that tank numbers are unique within each class.
func (r Registry) Validate() error {
	seen := make(map[Tank]struct{}, len(r))
	for _, t := range r {
		if _, dup := seen[t]; dup {
			return fmt.Errorf("tank registry: duplicate tank %s", t)
		}
		seen[t] = struct{}{}
	}
	return nil
}
