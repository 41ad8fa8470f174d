// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import "github.com/danielhkuo/securevote/models"

// Percentage rounds 100*optionVotes/totalVotes half up. Each option is
// rounded on its own, so a poll's percentages may not sum to 100.
func Percentage(optionVotes, totalVotes int) int {
	if totalVotes <= 0 {
		return 0
	}
	return (200*optionVotes + totalVotes) / (2 * totalVotes)
}

// Results lists the poll's options with counts and percentages.
func Results(poll models.Poll) []models.OptionResult {
	total := poll.TotalVotes()
	out := make([]models.OptionResult, len(poll.Options))
	for i, opt := range poll.Options {
		out[i] = models.OptionResult{
			OptionID:   opt.ID,
			Text:       opt.Text,
			Votes:      opt.VoteCount,
			Percentage: Percentage(opt.VoteCount, total),
		}
	}
	return out
}
