package produced

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Calculator standardises readings and reconciles daily production.
// It holds no mutable state; one instance can serve concurrent runs.
type Calculator struct {
	materials MaterialTable
	registry  Registry
	workers   int
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithMaterials sets the material table. The table is copied.
func WithMaterials(m MaterialTable) Option {
	return func(c *Calculator) {
		c.materials = m.With(nil)
	}
}

// WithRegistry replaces the default tank registry.
func WithRegistry(r Registry) Option {
	return func(c *Calculator) {
		c.registry = r.sorted()
	}
}

// WithWorkers bounds the per-day stock pre-pass concurrency.
func WithWorkers(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// NewCalculator builds a Calculator with the default materials and registry
// unless overridden.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		materials: DefaultMaterials(),
		registry:  DefaultRegistry(),
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Materials returns a copy of the calculator's material table.
func (c *Calculator) Materials() MaterialTable {
	return c.materials.With(nil)
}

// Registry returns the calculator's tank registry.
func (c *Calculator) Registry() Registry {
	return append(Registry(nil), c.registry...)
}

// StandardVolume converts a reading into standard hectolitres. Empty vessels
// (zero volume, zero Plato or material 0) contribute exactly zero.
func (c *Calculator) StandardVolume(r Reading) (float64, error) {
	// 1. Nothing in the vessel
	if r.Volume == 0 || r.Plato == 0 {
		return 0, nil
	}

	// 2. Volumetric degree
	gradoVol := PlatoToVolumetric(r.Plato)
	if gradoVol == 0 {
		return 0, nil
	}

	// 3. Empty-product sentinel
	if r.Material == 0 {
		return 0, nil
	}

	// 4-5. Standard degree for the product
	gradoStd, err := c.materials.Lookup(r.Material)
	if err != nil {
		return 0, err
	}
	if gradoStd == 0 {
		return 0, nil
	}

	// 6. Standardised volume
	return (r.Volume * gradoVol) / gradoStd, nil
}

// CalcHLStd parses raw cells and returns their standardised volume.
func (c *Calculator) CalcHLStd(volume, plato, material string) (float64, error) {
	r, err := ParseReading(volume, plato, material)
	if err != nil {
		return 0, err
	}
	return c.StandardVolume(r)
}

// AggregateStock sums the standardised volume of every registered tank whose
// plato, level and material columns are all present in the snapshot.
func (c *Calculator) AggregateStock(s DailySnapshot) (float64, error) {
	total, _, err := c.stock(s)
	return total, err
}

// TankBreakdown returns the per-tank readings of a snapshot in registry order.
func (c *Calculator) TankBreakdown(s DailySnapshot) ([]TankResult, error) {
	_, tanks, err := c.stock(s)
	return tanks, err
}

func (c *Calculator) stock(s DailySnapshot) (float64, []TankResult, error) {
	day := s.DayKey()
	var total float64
	tanks := make([]TankResult, 0, len(c.registry))

	for _, t := range c.registry {
		if !s.Has(t.PlatoColumn()) || !s.Has(t.MaterialColumn()) {
			log.Debug().Str("day", day).Str("tank", t.String()).Msg("tank columns missing, skipped")
			continue
		}

		if !s.Has(t.LevelColumn()) {
			if t.HasLevel() {
				log.Debug().Str("day", day).Str("tank", t.String()).Msg("tank level column missing, skipped")
				continue
			}
			plato, err := ParseValue("plato", s.Values[t.PlatoColumn()])
			if err != nil {
				return 0, nil, annotate(err, day, t.String())
			}
			material, err := ParseValue("material", s.Values[t.MaterialColumn()])
			if err != nil {
				return 0, nil, annotate(err, day, t.String())
			}
			tanks = append(tanks, TankResult{Tank: t, Plato: plato, Material: int(material)})
			continue
		}

		r, err := ParseReading(s.Values[t.LevelColumn()], s.Values[t.PlatoColumn()], s.Values[t.MaterialColumn()])
		if err != nil {
			return 0, nil, annotate(err, day, t.String())
		}
		hl, err := c.StandardVolume(r)
		if err != nil {
			return 0, nil, annotate(err, day, t.String())
		}
		total += hl
		tanks = append(tanks, TankResult{
			Tank:     t,
			Level:    r.Volume,
			Plato:    r.Plato,
			Material: r.Material,
			HasLevel: true,
			HLStd:    hl,
		})
	}

	return total, tanks, nil
}

// Run computes one DailyResult per snapshot, in order. Stock for every day is
// computed concurrently first; the carry-forward of stock_start is sequential.
// Any reading error aborts the run and no results are returned.
func (c *Calculator) Run(ctx context.Context, snapshots []DailySnapshot) ([]DailyResult, error) {
	if len(snapshots) == 0 {
		return nil, nil
	}

	type dayStock struct {
		total float64
		tanks []TankResult
	}
	stocks := make([]dayStock, len(snapshots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range snapshots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			total, tanks, err := c.stock(snapshots[i])
			if err != nil {
				return err
			}
			stocks[i] = dayStock{total: total, tanks: tanks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]DailyResult, len(snapshots))
	for i, s := range snapshots {
		res, err := c.day(s)
		if err != nil {
			return nil, err
		}

		if i > 0 {
			res.StockStart = stocks[i-1].total
		}
		res.StockEnd = stocks[i].total
		res.StockDelta = res.StockEnd - res.StockStart
		res.Produced = res.PackedTotal + res.TruckTotal/2 + res.StockDelta/2
		res.Tanks = stocks[i].tanks

		results[i] = res
	}

	log.Debug().Int("days", len(results)).Msg("produced run completed")
	return results, nil
}

// day fills the packaging and truck parts of a result.
func (c *Calculator) day(s DailySnapshot) (DailyResult, error) {
	res := DailyResult{
		Date:        s.Date,
		Label:       s.Label,
		Packed:      s.Packed,
		PackedTotal: s.Packed.Total(),
	}

	for i, tr := range s.Trucks {
		hl, err := c.StandardVolume(Reading{Volume: tr.Level, Plato: tr.Plato, Material: TruckMaterial})
		if err != nil {
			return DailyResult{}, annotate(err, s.DayKey(), fmt.Sprintf("Truck%d", i+1))
		}
		res.Trucks[i] = TruckResult{Level: tr.Level, Plato: tr.Plato, HLStd: hl}
		res.TruckTotal += hl
	}

	return res, nil
}
