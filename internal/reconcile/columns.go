package reconcile

import (
	"fmt"

	"github.com/andresuchdata/produced-go/internal/tabular"
)

// Canonical column names of the merged daily table.
const (
	PackedOW1 = "Packed OW1"
	PackedRGB = "Packed RGB"
	PackedOW2 = "Packed OW2"
	PackedKEG = "Packed KEG"

	Truck1Level = "Truck1 Level"
	Truck1Plato = "Truck1 Average Plato"
	Truck2Level = "Truck2 Level"
	Truck2Plato = "Truck2 Average Plato"
)

// field is a canonical column and the header spellings accepted for it,
// tried in order.
type field struct {
	canonical string
	aliases   []string
}

var packedFields = []field{
	{PackedOW1, []string{"Packed_OW1", "Packed OW1", "OW1"}},
	{PackedRGB, []string{"Packed_RGB", "Packed RGB", "RGB"}},
	{PackedOW2, []string{"Packed_OW2", "Packed OW2", "OW2"}},
	{PackedKEG, []string{"Packed_KEG", "Packed KEG", "KEG"}},
}

var truckFields = []field{
	{Truck1Level, truckLevelAliases(1)},
	{Truck1Plato, truckPlatoAliases(1)},
	{Truck2Level, truckLevelAliases(2)},
	{Truck2Plato, truckPlatoAliases(2)},
}

func truckLevelAliases(n int) []string {
	return []string{
		fmt.Sprintf("Truck%d_Level", n),
		fmt.Sprintf("Truck%dLevel", n),
		fmt.Sprintf("Truck%d Level", n),
	}
}

func truckPlatoAliases(n int) []string {
	return []string{
		fmt.Sprintf("Truck%d_Plato", n),
		fmt.Sprintf("Truck%dPlato", n),
		fmt.Sprintf("Truck%d Plato", n),
		fmt.Sprintf("Truck%d_Average_Plato", n),
		fmt.Sprintf("Truck%d Average Plato", n),
	}
}

// TimestampCandidates are the header names tried, in order, for a source's
// timestamp column.
var TimestampCandidates = []string{"Timestamp", "Time", "DateTime", "Date", "timestamp", "time", "datetime"}

// resolve maps each canonical field to the index of the first alias present in
// t, or -1.
func resolve(t *tabular.Table, fields []field) map[string]int {
	out := make(map[string]int, len(fields))
	for _, f := range fields {
		out[f.canonical] = -1
		for _, alias := range f.aliases {
			if i := t.Index(alias); i >= 0 {
				out[f.canonical] = i
				break
			}
		}
	}
	return out
}
