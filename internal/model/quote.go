package model

import (
	"math"
	"time"
)

// Quote is one normalized daily price record for a single symbol.
// Providers emit different subsets of these fields; absent values are NaN.
type Quote struct {
	Code string
	Date time.Time

	BasicPrice   float64
	CeilingPrice float64
	FloorPrice   float64

	Open    float64
	High    float64
	Low     float64
	Close   float64
	Average float64

	AdjustOpen    float64
	AdjustHigh    float64
	AdjustLow     float64
	Adjust        float64 // adjusted close, renamed uniformly across providers
	AdjustAverage float64

	VolumeMatch     float64
	ValueMatch      float64
	VolumeReconcile float64
	ValueReconcile  float64

	Change       float64
	AdjustChange float64
	PctChange    float64
}

// NewQuote returns a quote for (code, date) with every numeric field set to
// NaN, so providers only assign the columns they actually emit.
func NewQuote(code string, date time.Time) Quote {
	n := math.NaN()
	return Quote{
		Code: code, Date: date,
		BasicPrice: n, CeilingPrice: n, FloorPrice: n,
		Open: n, High: n, Low: n, Close: n, Average: n,
		AdjustOpen: n, AdjustHigh: n, AdjustLow: n, Adjust: n, AdjustAverage: n,
		VolumeMatch: n, ValueMatch: n, VolumeReconcile: n, ValueReconcile: n,
		Change: n, AdjustChange: n, PctChange: n,
	}
}

// Attribute identifies one numeric column of a quote row.
type Attribute string

const (
	AttrBasicPrice   Attribute = "basic_price"
	AttrCeilingPrice Attribute = "ceiling_price"
	AttrFloorPrice   Attribute = "floor_price"

	AttrOpen    Attribute = "open"
	AttrHigh    Attribute = "high"
	AttrLow     Attribute = "low"
	AttrClose   Attribute = "close"
	AttrAverage Attribute = "average"

	AttrAdjustOpen    Attribute = "adjust_open"
	AttrAdjustHigh    Attribute = "adjust_high"
	AttrAdjustLow     Attribute = "adjust_low"
	AttrAdjust        Attribute = "adjust"
	AttrAdjustAverage Attribute = "adjust_average"

	AttrVolumeMatch     Attribute = "volume_match"
	AttrValueMatch      Attribute = "value_match"
	AttrVolumeReconcile Attribute = "volume_reconcile"
	AttrValueReconcile  Attribute = "value_reconcile"

	AttrChange       Attribute = "change"
	AttrAdjustChange Attribute = "adjust_change"
	AttrPctChange    Attribute = "percent_change"
)

// MinimalAttributes is the reduced column set every provider can satisfy.
// The order here is the declaration order of minimal-mode output columns.
func MinimalAttributes() []Attribute {
	return []Attribute{
		AttrOpen, AttrHigh, AttrLow, AttrClose,
		AttrAdjust, AttrVolumeMatch, AttrValueMatch,
	}
}

// Value returns the quote field bound to attr. Unknown attributes yield NaN.
func (q Quote) Value(attr Attribute) float64 {
	switch attr {
	case AttrBasicPrice:
		return q.BasicPrice
	case AttrCeilingPrice:
		return q.CeilingPrice
	case AttrFloorPrice:
		return q.FloorPrice
	case AttrOpen:
		return q.Open
	case AttrHigh:
		return q.High
	case AttrLow:
		return q.Low
	case AttrClose:
		return q.Close
	case AttrAverage:
		return q.Average
	case AttrAdjustOpen:
		return q.AdjustOpen
	case AttrAdjustHigh:
		return q.AdjustHigh
	case AttrAdjustLow:
		return q.AdjustLow
	case AttrAdjust:
		return q.Adjust
	case AttrAdjustAverage:
		return q.AdjustAverage
	case AttrVolumeMatch:
		return q.VolumeMatch
	case AttrValueMatch:
		return q.ValueMatch
	case AttrVolumeReconcile:
		return q.VolumeReconcile
	case AttrValueReconcile:
		return q.ValueReconcile
	case AttrChange:
		return q.Change
	case AttrAdjustChange:
		return q.AdjustChange
	case AttrPctChange:
		return q.PctChange
	}
	return nan
}
