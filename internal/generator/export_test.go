package generator

import "time"

var (
	OutputFileName = outputFileName
	NormalizeSeed  = normalizeSeed
	SplitRefImages = splitRefImages
)

func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

func (g *Generator) SetSeedSource(seeds SeedSource) {
	g.seeds = seeds
}
