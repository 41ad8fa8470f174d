// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the SecureVote API.

Handlers are a thin JSON adapter over voting.Service. They parse the
request, resolve the caller and translate domain errors with
middleware.WriteError; all rules live in the service.

# Handler Types

  - PollHandler: create, list, deactivate, delete
  - VotingHandler: cast a vote, read your own vote
  - ResultsHandler: poll detail with results, tally reconciliation

Every handler is built from the service and a role resolver:

	pollHandler := handlers.NewPollHandler(svc, roles)

# Caller Identity

Mutating endpoints require the X-User-ID header and answer 401 without it.
GET /polls/{id} accepts anonymous callers, who see the poll without
eligibility.

# Poll Management

	POST   /polls                   → CreatePoll (creator/admin)
	GET    /polls?genre=&active=    → ListPolls
	POST   /polls/{id}/deactivate   → DeactivatePoll (creator/admin)
	DELETE /polls/{id}              → DeletePoll (creator/admin), 204

# Voting

	POST /polls/{id}/votes     → CastVote {"option_id": "..."}
	GET  /polls/{id}/votes/me  → GetMyVote

A first vote answers 201. Changing the choice or repeating it answers 200
with outcome "changed" or "unchanged".

# Results

	GET  /polls/{id}            → GetPoll
	POST /polls/{id}/reconcile  → Reconcile (admin)

Results are included once the caller has voted or the poll is closed.
*/
package handlers
