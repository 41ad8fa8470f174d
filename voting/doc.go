// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting is the command surface of the poll and vote ledger.

Transports (the HTTP handlers, the demo seeder) call Service and never reach
into the ledger or the storage adapters directly.

# Operations

	CreatePoll(ctx, who, req)         creator/admin only
	DeletePoll(ctx, who, id)          creator/admin only, cascades votes
	DeactivatePoll(ctx, who, id)      creator/admin only, idempotent
	CastVote(ctx, who, id, optionID)  insert, replace or no-op
	MyVote(ctx, who, id)
	ListPolls(ctx, filter)            summaries with derived state
	GetPollDetail(ctx, id, voterID)   state, eligibility, results
	Reconcile(ctx, who, id)           admin only

# Poll Detail

GetPollDetail derives everything from the current clock:

  - State is open, expired or inactive.
  - CanVote is true only while the poll is open and the voter has no vote.
    A voter who already voted may still resubmit; CastVote treats a
    different option as a change of vote.
  - Results are included once the voter has voted or the poll is closed.

# Example

	svc := voting.NewService(voting.Config{
		Polls:     pollStore,
		Ledger:    votes,
		Projector: projector,
	})

	who := auth.Identity{UserID: "u1", Role: auth.RoleVoter}
	result, err := svc.CastVote(ctx, who, pollID, optionID)
*/
package voting
