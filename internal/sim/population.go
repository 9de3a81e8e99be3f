package sim

import "fmt"

// censusEntry fixes one archetype's headcount and capital ramp. The
// census is a design constant of the simulation, not runtime
// configuration: capital ramps linearly from base across the cohort.
type censusEntry struct {
	archetype   Archetype
	prefix      string
	count       int
	baseCapital float64
	capitalStep float64
}

// census is the fixed roster: 1,430 traders across seven archetypes.
var census = []censusEntry{
	{Retail, "retail", 1000, 1000, 5},           // $1k–$6k
	{Institutional, "inst", 100, 50000, 1000},   // $50k–$150k
	{HFT, "hft", 200, 10000, 200},               // $10k–$50k
	{MarketMaker, "mm", 50, 30000, 500},         // $30k–$55k
	{Whale, "whale", 10, 150000, 10000},         // $150k–$240k
	{Momentum, "momentum", 50, 8000, 200},       // $8k–$18k
	{Arbitrageur, "arb", 20, 15000, 500},        // $15k–$25k
}

// Population is the fixed heterogeneous roster. It is built once; no
// traders are added or removed during a run, and all mutation of trader
// state goes through the population's own traders.
type Population struct {
	Traders      []*Trader
	TotalCapital float64
}

// NewPopulation builds the full census. Construction is deterministic
// and cannot fail.
func NewPopulation() *Population {
	p := &Population{}
	for _, entry := range census {
		for i := 0; i < entry.count; i++ {
			capital := entry.baseCapital + float64(i)*entry.capitalStep
			id := fmt.Sprintf("%s_%d", entry.prefix, i)
			p.Traders = append(p.Traders, NewTrader(id, entry.archetype, capital))
			p.TotalCapital += capital
		}
	}
	return p
}

// ArchetypeStats aggregates one archetype's cohort.
type ArchetypeStats struct {
	Count        int     `json:"count"`
	TotalCapital float64 `json:"total_capital"`
	TotalTrades  int     `json:"total_trades"`
}

// Stats summarizes the population by archetype.
type Stats struct {
	TotalTraders int                          `json:"total_traders"`
	TotalCapital float64                      `json:"total_capital"`
	ByArchetype  map[Archetype]ArchetypeStats `json:"by_archetype"`
}

// Stats aggregates counts, capital, and trade activity per archetype.
func (p *Population) Stats() Stats {
	s := Stats{
		TotalTraders: len(p.Traders),
		TotalCapital: p.TotalCapital,
		ByArchetype:  make(map[Archetype]ArchetypeStats),
	}
	for _, t := range p.Traders {
		entry := s.ByArchetype[t.Archetype]
		entry.Count++
		entry.TotalCapital += t.Capital
		entry.TotalTrades += t.TradeCount
		s.ByArchetype[t.Archetype] = entry
	}
	return s
}
