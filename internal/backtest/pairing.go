package backtest

import "backlite/internal/domain"

// PairTrades reconstructs completed trades from a chronological action-tagged
// data point sequence and threads the running balance through them.
//
// The replay loop emits strictly alternating entry/exit points for a single
// directional exposure, so pairing consumes the stream in chunks of two: the
// closest close matches the most recent still-open entry. An odd trailing
// point — a final entry the data ended before closing — is dropped before the
// scan and never counted as a trade. Any chunk whose first point is not an
// entry, or whose second point does not close that entry's direction, is a
// corrupt stream and yields a *PairingError.
func PairTrades(points []domain.DataPoint, startingBalance float64) ([]domain.TradePair, error) {
	if len(points) < 2 {
		return nil, nil
	}
	if len(points)%2 != 0 {
		points = points[:len(points)-1]
	}

	pairs := make([]domain.TradePair, 0, len(points)/2)
	balance := startingBalance

	for i := 0; i < len(points); i += 2 {
		enter, exit := points[i], points[i+1]

		if !enter.Action.IsEntry() || !exit.Action.Closes(enter.Action) {
			return nil, &PairingError{Index: enter.Index, Enter: enter.Action, Exit: exit.Action}
		}

		pl := legProfitLoss(enter, exit)
		pairs = append(pairs, domain.TradePair{
			Enter:       enter,
			Exit:        exit,
			PrevBalance: balance,
			Balance:     balance + pl,
		})
		balance += pl
	}

	return pairs, nil
}

// legProfitLoss applies the open-price delta rule: both legs fill at the
// bar's open. Callers must have validated the action combination; the
// entry action alone determines the sign.
func legProfitLoss(enter, exit domain.DataPoint) float64 {
	if enter.Action == domain.ActionBuy {
		return exit.Bar.Open - enter.Bar.Open
	}
	return enter.Bar.Open - exit.Bar.Open
}
