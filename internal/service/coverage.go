package service

import (
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/apperrors"
	"github.com/rvanbeek/portfolio-tracker/internal/model"
)

// CheckCoverage reports which days inside [startDate, endDate] already have
// materialized rows for the given holdings.
//
// A day counts as covered when every holding expected to have a row on that day
// has one. A holding is expected to have rows from its first transaction date
// onward; days before any holding existed are neither covered nor missing.
// Holdings with no transactions contribute nothing, so a range over an empty
// ledger reports complete coverage.
//
// Contiguous runs of covered and missing days are collapsed into date ranges so
// callers can re-materialize only the gaps.
func (s *MaterializerService) CheckCoverage(pfIDs []string, startDate, endDate time.Time) (model.Coverage, error) {
	startDate = normalizeDay(startDate)
	endDate = normalizeDay(endDate)
	if startDate.After(endDate) {
		return model.Coverage{}, apperrors.ErrInvalidDateRange
	}

	transactionsByPF, err := s.transactionRepo.GetTransactions(pfIDs, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), endDate)
	if err != nil {
		return model.Coverage{}, err
	}

	firstTxDates := make(map[string]time.Time, len(transactionsByPF))
	for pfID, transactions := range transactionsByPF {
		if len(transactions) > 0 {
			firstTxDates[pfID] = normalizeDay(transactions[0].Date)
		}
	}
	if len(firstTxDates) == 0 {
		return model.Coverage{IsComplete: true}, nil
	}

	covered, err := s.materializedRepo.GetCoveredDates(pfIDs, startDate, endDate)
	if err != nil {
		return model.Coverage{}, err
	}

	var coveredRanges, missingRanges []model.DateRange
	var runStart time.Time
	var runCovered, inRun bool

	closeRun := func(lastDay time.Time) {
		if !inRun {
			return
		}
		r := model.DateRange{Start: runStart, End: lastDay}
		if runCovered {
			coveredRanges = append(coveredRanges, r)
		} else {
			missingRanges = append(missingRanges, r)
		}
		inRun = false
	}

	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		dayStr := day.Format("2006-01-02")

		expected := false
		dayCovered := true
		for pfID, firstTx := range firstTxDates {
			if day.Before(firstTx) {
				continue
			}
			expected = true
			if !covered[pfID][dayStr] {
				dayCovered = false
				break
			}
		}
		if !expected {
			continue
		}

		if inRun && dayCovered != runCovered {
			closeRun(day.AddDate(0, 0, -1))
		}
		if !inRun {
			runStart = day
			runCovered = dayCovered
			inRun = true
		}
	}
	closeRun(endDate)

	isComplete := len(missingRanges) == 0
	return model.Coverage{
		IsComplete:      isComplete,
		PartialCoverage: !isComplete && len(coveredRanges) > 0,
		CoveredRanges:   coveredRanges,
		MissingRanges:   missingRanges,
	}, nil
}
