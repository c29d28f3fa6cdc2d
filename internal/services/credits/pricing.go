package credits

type Tier struct {
	Amount  int
	Price   float64
	Savings float64
}

type Pricing struct {
	Small      Tier
	Medium     Tier
	Large      Tier
	Enterprise Tier
}

// CostFor prorates the price of the tier whose bracket contains amount:
// straight multiplication, e.g. amount/30 of the medium price for 11-30.
func (p Pricing) CostFor(amount int) (cost, savings float64) {
	switch {
	case amount <= p.Small.Amount:
		ratio := float64(amount) / float64(p.Small.Amount)
		return ratio * p.Small.Price, ratio * p.Small.Savings
	case amount <= p.Medium.Amount:
		ratio := float64(amount) / float64(p.Medium.Amount)
		return ratio * p.Medium.Price, ratio * p.Medium.Savings
	case amount <= p.Large.Amount:
		ratio := float64(amount) / float64(p.Large.Amount)
		return ratio * p.Large.Price, ratio * p.Large.Savings
	default:
		ratio := float64(amount) / float64(p.Enterprise.Amount)
		return ratio * p.Enterprise.Price, ratio * p.Enterprise.Savings
	}
}
