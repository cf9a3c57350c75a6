package ladder

import (
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

// amountMultipliers is the fixed discrete jitter set applied to every newly
// sized order so ladder rungs don't all carry identical amounts.
var amountMultipliers = []decimal.Decimal{
	decimal.RequireFromString("0.80"),
	decimal.RequireFromString("0.84"),
	decimal.RequireFromString("0.88"),
	decimal.RequireFromString("0.92"),
	decimal.RequireFromString("0.95"),
	decimal.RequireFromString("0.99"),
	decimal.RequireFromString("1.03"),
	decimal.RequireFromString("1.06"),
	decimal.RequireFromString("1.09"),
	decimal.RequireFromString("1.12"),
	decimal.RequireFromString("1.16"),
	decimal.RequireFromString("1.20"),
}

// tagPrecision is the decimal scale of the fractional tag.
const tagPrecision = 10

// Jitter perturbs order amounts: a multiplier from the fixed set plus a
// tiny fractional tag. The tag makes each order's amount unique in its
// fractional residue, which is what offline performance attribution keys
// on; it plays no part in reconciliation.
type Jitter struct {
	r *rand.Rand
}

// NewJitter creates a Jitter. A nil source seeds from the clock.
func NewJitter(r *rand.Rand) *Jitter {
	if r == nil {
		now := uint64(time.Now().UnixNano())
		r = rand.New(rand.NewPCG(now, now>>32))
	}
	return &Jitter{r: r}
}

// Multiplier draws one multiplier from the fixed set.
func (j *Jitter) Multiplier() decimal.Decimal {
	return amountMultipliers[j.r.IntN(len(amountMultipliers))]
}

// Tag draws the fractional identification amount, guaranteed nonzero.
func (j *Jitter) Tag() decimal.Decimal {
	for {
		tag := decimal.NewFromFloat(j.r.Float64() / 10000.0).Round(tagPrecision)
		if !tag.IsZero() {
			return tag
		}
	}
}

// Amount sizes an order: base amount perturbed by the multiplier, tagged.
func (j *Jitter) Amount(base decimal.Decimal) decimal.Decimal {
	return base.Mul(j.Multiplier()).Add(j.Tag())
}
