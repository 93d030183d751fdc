package postgres

import (
	"testing"
	"time"

	"github.com/andresuchdata/produced-go/internal/domain"
)

func TestRangeFilter(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		in        domain.DateRange
		wantWhere string
		wantArgs  int
	}{
		{name: "open", in: domain.DateRange{}, wantWhere: "", wantArgs: 0},
		{name: "from only", in: domain.DateRange{From: from}, wantWhere: "WHERE date >= $1", wantArgs: 1},
		{name: "to only", in: domain.DateRange{To: to}, wantWhere: "WHERE date <= $1", wantArgs: 1},
		{name: "both", in: domain.DateRange{From: from, To: to}, wantWhere: "WHERE date >= $1 AND date <= $2", wantArgs: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := rangeFilter(tt.in)
			if where != tt.wantWhere || len(args) != tt.wantArgs {
				t.Fatalf("rangeFilter = %q %v", where, args)
			}
		})
	}
}
