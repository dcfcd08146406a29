package kernel

import (
	"math"

	"github.com/rxtech-lab/argo-gridsim/internal/types"
	"github.com/rxtech-lab/argo-gridsim/pkg/errors"
)

// maxGridOrders caps ladder depth when the wallet exposure limit alone would
// not terminate the ladder.
const maxGridOrders = 10

// NativeKernel is a deterministic in-process reference implementation of the
// ladder contract: a geometrically spaced entry grid with double-down sizing
// and optional trailing entries, and a markup-range close ladder with
// optional trailing closes. It exists so the contract is testable without an
// accelerated external component.
type NativeKernel struct{}

// NewNativeKernel creates the reference kernel.
func NewNativeKernel() *NativeKernel {
	return &NativeKernel{}
}

// CalcEntries implements Kernel.
func (k *NativeKernel) CalcEntries(in EntryInputs) ([]RawOrder, error) {
	if in.CurrentPrice <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "non-positive current price %f", in.CurrentPrice)
	}

	if in.Balance <= 0 {
		return nil, nil
	}

	cmult := in.Rules.CMult
	if cmult <= 0 {
		cmult = 1
	}

	posSize := math.Abs(in.PositionSize)

	// Wallet exposure gate: stop adding to the position once the limit is
	// consumed.
	if in.WalletExposureLimit > 0 && posSize > 0 {
		exposure := posSize * in.PositionPrice * cmult / in.Balance
		if exposure >= in.WalletExposureLimit {
			return nil, nil
		}
	}

	trailingOnly := in.TrailingGridRatio >= 1 || in.TrailingGridRatio <= -1

	if posSize > 0 && in.TrailingGridRatio != 0 {
		if order, ok := k.trailingEntry(in, posSize); ok {
			return []RawOrder{order}, nil
		}

		if trailingOnly {
			return nil, nil
		}
	}

	return k.gridEntries(in, posSize), nil
}

// trailingEntry emits the single retracement-triggered re-entry order once
// price has moved past the threshold and come back by the retracement
// fraction.
func (k *NativeKernel) trailingEntry(in EntryInputs, posSize float64) (RawOrder, bool) {
	ddf := in.TrailingDoubleDownFactor
	if ddf <= 0 {
		ddf = 1
	}

	qty := RoundDn(posSize*ddf, in.Rules.QtyStep)
	if qty < in.Rules.MinQty || qty <= 0 {
		return RawOrder{}, false
	}

	if in.Side == types.SideLong {
		threshold := in.PositionPrice * (1 - in.TrailingThresholdPct)
		retrace := in.Trailing.MinSinceOpen * (1 + in.TrailingRetracementPct)

		if in.Trailing.MinSinceOpen > 0 && in.Trailing.MinSinceOpen <= threshold && in.CurrentPrice >= retrace {
			return RawOrder{
				Qty:       qty,
				Price:     RoundDn(in.CurrentPrice, in.Rules.PriceStep),
				OrderType: types.OrderTypeLimitBuy,
			}, true
		}

		return RawOrder{}, false
	}

	threshold := in.PositionPrice * (1 + in.TrailingThresholdPct)
	retrace := in.Trailing.MaxSinceOpen * (1 - in.TrailingRetracementPct)

	if in.Trailing.MaxSinceOpen > 0 && in.Trailing.MaxSinceOpen >= threshold && in.CurrentPrice <= retrace {
		return RawOrder{
			Qty:       -qty,
			Price:     RoundUp(in.CurrentPrice, in.Rules.PriceStep),
			OrderType: types.OrderTypeLimitSell,
		}, true
	}

	return RawOrder{}, false
}

// gridEntries builds the fixed ladder: levels spaced geometrically away from
// the reference price, each deeper level scaled by the double-down factor.
func (k *NativeKernel) gridEntries(in EntryInputs, posSize float64) []RawOrder {
	cmult := in.Rules.CMult
	if cmult <= 0 {
		cmult = 1
	}

	spacing := in.GridSpacingPct
	if spacing <= 0 {
		return nil
	}

	// Reference price: position price when a position exists, otherwise the
	// EMA-banded initial entry anchored at the current price.
	refPrice := in.PositionPrice
	if posSize == 0 {
		refPrice = in.CurrentPrice
		if in.EMAMin > 0 {
			band := in.EMAMin * (1 - in.InitialEMADist)
			if band < refPrice {
				refPrice = band
			}
		}
	}

	if refPrice <= 0 {
		return nil
	}

	initialQty := in.Balance * in.InitialQtyPct / refPrice
	qty := initialQty
	if posSize > 0 {
		ddf := in.GridDoubleDownFactor
		if ddf <= 0 {
			ddf = 1
		}

		qty = posSize * ddf
	}

	exposure := posSize * in.PositionPrice * cmult / in.Balance
	orders := make([]RawOrder, 0, maxGridOrders)
	price := refPrice

	for i := 0; i < maxGridOrders; i++ {
		// Spacing weight skews level density with consumed exposure.
		stepPct := spacing
		if in.WalletExposureLimit > 0 {
			stepPct = spacing * (1 + in.GridSpacingWeight*exposure/in.WalletExposureLimit)
		}

		if in.Side == types.SideLong {
			price *= 1 - stepPct
		} else {
			price *= 1 + stepPct
		}

		var order RawOrder
		if in.Side == types.SideLong {
			order = RawOrder{
				Qty:       RoundDn(qty, in.Rules.QtyStep),
				Price:     RoundDn(price, in.Rules.PriceStep),
				OrderType: types.OrderTypeLimitBuy,
			}
		} else {
			order = RawOrder{
				Qty:       -RoundDn(qty, in.Rules.QtyStep),
				Price:     RoundUp(price, in.Rules.PriceStep),
				OrderType: types.OrderTypeLimitSell,
			}
		}

		absQty := math.Abs(order.Qty)
		if absQty < in.Rules.MinQty || absQty*order.Price < in.Rules.MinCost || absQty == 0 {
			break
		}

		exposure += absQty * order.Price * cmult / in.Balance
		if in.WalletExposureLimit > 0 && exposure > in.WalletExposureLimit {
			break
		}

		orders = append(orders, order)

		ddf := in.GridDoubleDownFactor
		if ddf <= 0 {
			ddf = 1
		}

		qty *= ddf
	}

	return orders
}

// CalcCloses implements Kernel.
func (k *NativeKernel) CalcCloses(in CloseInputs) ([]RawOrder, error) {
	if in.CurrentPrice <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "non-positive current price %f", in.CurrentPrice)
	}

	posSize := math.Abs(in.PositionSize)
	if posSize == 0 || in.PositionPrice <= 0 {
		return nil, nil
	}

	trailingOnly := in.TrailingGridRatio >= 1 || in.TrailingGridRatio <= -1

	if in.TrailingGridRatio != 0 {
		if order, ok := k.trailingClose(in, posSize); ok {
			return []RawOrder{order}, nil
		}

		if trailingOnly {
			return nil, nil
		}
	}

	return k.gridCloses(in, posSize), nil
}

// trailingClose emits the single retracement-triggered close once price has
// run past the threshold and pulled back by the retracement fraction.
func (k *NativeKernel) trailingClose(in CloseInputs, posSize float64) (RawOrder, bool) {
	qtyPct := in.TrailingQtyPct
	if qtyPct <= 0 {
		qtyPct = 1
	}

	qty := RoundDn(posSize*qtyPct, in.Rules.QtyStep)
	if qty <= 0 || qty < in.Rules.MinQty {
		return RawOrder{}, false
	}

	if in.Side == types.SideLong {
		threshold := in.PositionPrice * (1 + in.TrailingThresholdPct)
		retrace := in.Trailing.MaxSinceOpen * (1 - in.TrailingRetracementPct)

		if in.Trailing.MaxSinceOpen > 0 && in.Trailing.MaxSinceOpen >= threshold && in.CurrentPrice <= retrace {
			return RawOrder{
				Qty:       -qty,
				Price:     RoundUp(in.CurrentPrice, in.Rules.PriceStep),
				OrderType: types.OrderTypeLimitSell,
			}, true
		}

		return RawOrder{}, false
	}

	threshold := in.PositionPrice * (1 - in.TrailingThresholdPct)
	retrace := in.Trailing.MinSinceOpen * (1 + in.TrailingRetracementPct)

	if in.Trailing.MinSinceOpen > 0 && in.Trailing.MinSinceOpen <= threshold && in.CurrentPrice >= retrace {
		return RawOrder{
			Qty:       qty,
			Price:     RoundDn(in.CurrentPrice, in.Rules.PriceStep),
			OrderType: types.OrderTypeLimitBuy,
		}, true
	}

	return RawOrder{}, false
}

// gridCloses spreads a partial-close ladder across the markup range
// [markup_start, markup_end] relative to the entry price.
func (k *NativeKernel) gridCloses(in CloseInputs, posSize float64) []RawOrder {
	qtyPct := in.GridQtyPct
	if qtyPct <= 0 || qtyPct > 1 {
		qtyPct = 1
	}

	count := int(math.Ceil(1/qtyPct - 1e-9))
	if count < 1 {
		count = 1
	}

	markupStart := in.GridMarkupStart
	markupEnd := in.GridMarkupEnd
	if markupEnd < markupStart {
		markupEnd = markupStart
	}

	orders := make([]RawOrder, 0, count)
	remaining := posSize

	for i := 0; i < count && remaining > 0; i++ {
		markup := markupStart
		if count > 1 {
			markup = markupStart + (markupEnd-markupStart)*float64(i)/float64(count-1)
		}

		qty := posSize * qtyPct
		if i == count-1 || qty > remaining {
			qty = remaining
		}

		qty = RoundDn(qty, in.Rules.QtyStep)
		if qty <= 0 || qty < in.Rules.MinQty {
			break
		}

		var order RawOrder
		if in.Side == types.SideLong {
			order = RawOrder{
				Qty:       -qty,
				Price:     RoundUp(in.PositionPrice*(1+markup), in.Rules.PriceStep),
				OrderType: types.OrderTypeLimitSell,
			}
		} else {
			order = RawOrder{
				Qty:       qty,
				Price:     RoundDn(in.PositionPrice*(1-markup), in.Rules.PriceStep),
				OrderType: types.OrderTypeLimitBuy,
			}
		}

		orders = append(orders, order)
		remaining -= qty
	}

	return orders
}
