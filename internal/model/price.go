package model

import (
	"strconv"

	"github.com/yanun0323/errors"
)

// PriceScale is the number of decimal places carried by a Price.
// FX pairs quote to 5 places (a tenth of a pip).
const PriceScale = 5

const priceUnit = 100000

// Price is a scaled integer with PriceScale decimal places.
type Price int64

var (
	ErrEmptyPrice   = errors.New("empty price text")
	ErrInvalidPrice = errors.New("invalid price text")
)

// ParsePrice parses decimal text and quantizes it to PriceScale places,
// rounding half-down.
func ParsePrice(s string) (Price, error) {
	if len(s) == 0 {
		return 0, ErrEmptyPrice
	}

	i := 0
	neg := false
	switch s[0] {
	case '-':
		neg = true
		i++
	case '+':
		i++
	}
	if i == len(s) {
		return 0, ErrInvalidPrice
	}

	var whole int64
	sawDigit := false
	for ; i < len(s) && s[i] != '.'; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, errors.Wrapf(ErrInvalidPrice, "%q", s)
		}
		sawDigit = true
		whole = whole*10 + int64(c-'0')
		if whole > (1<<62)/priceUnit {
			return 0, errors.Wrapf(ErrInvalidPrice, "overflow %q", s)
		}
	}

	// remainder beyond the scale: undecided until the first extra digit,
	// an exact half stays pending and rounds up only if a later digit is
	// non-zero (half-down).
	const (
		remNone = iota
		remBelowHalf
		remHalfPending
		remAboveHalf
	)
	var frac int64
	fracDigits := 0
	rem := remNone
	if i < len(s) {
		i++ // consume '.'
		if i == len(s) && !sawDigit {
			return 0, errors.Wrapf(ErrInvalidPrice, "%q", s)
		}
		for ; i < len(s); i++ {
			c := s[i]
			if c < '0' || c > '9' {
				return 0, errors.Wrapf(ErrInvalidPrice, "%q", s)
			}
			sawDigit = true
			if fracDigits < PriceScale {
				frac = frac*10 + int64(c-'0')
				fracDigits++
				continue
			}
			switch rem {
			case remNone:
				switch {
				case c > '5':
					rem = remAboveHalf
				case c == '5':
					rem = remHalfPending
				default:
					rem = remBelowHalf
				}
			case remHalfPending:
				if c > '0' {
					rem = remAboveHalf
				}
			}
		}
	}
	if !sawDigit {
		return 0, errors.Wrapf(ErrInvalidPrice, "%q", s)
	}
	for d := fracDigits; d < PriceScale; d++ {
		frac *= 10
	}

	v := whole*priceUnit + frac
	if rem == remAboveHalf {
		v++
	}
	if neg {
		v = -v
	}
	return Price(v), nil
}

// Invert returns 1/p quantized half-down. Inverting a non-positive
// price yields zero.
func (p Price) Invert() Price {
	if p <= 0 {
		return 0
	}
	num := int64(priceUnit) * priceUnit
	q := num / int64(p)
	r := num % int64(p)
	if 2*r > int64(p) {
		q++
	}
	return Price(q)
}

func (p Price) String() string {
	return string(p.AppendString(nil))
}

// AppendString renders the price as decimal text into buf.
func (p Price) AppendString(buf []byte) []byte {
	v := int64(p)
	if v < 0 {
		buf = append(buf, '-')
		v = -v
	}
	buf = strconv.AppendInt(buf, v/priceUnit, 10)
	buf = append(buf, '.')
	frac := v % priceUnit
	div := int64(priceUnit / 10)
	for div > 0 {
		buf = append(buf, byte('0'+frac/div))
		frac %= div
		div /= 10
	}
	return buf
}

func (p Price) Float64() float64 {
	return float64(p) / priceUnit
}
