// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the SecureVote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, roles)

# Endpoints

Health:

	GET /health

Poll catalog (create, deactivate and delete need a creator or admin):

	POST   /polls                  - Create poll
	GET    /polls?genre=&active=   - List polls, newest first
	POST   /polls/{id}/deactivate  - Close to new votes
	DELETE /polls/{id}             - Delete poll and its votes

Voting (any identified caller):

	POST /polls/{id}/votes     - Cast or change a vote
	GET  /polls/{id}/votes/me  - Caller's own vote

Results:

	GET  /polls/{id}            - Poll detail for the caller
	POST /polls/{id}/reconcile  - Rebuild tallies from the ledger (admin)

# Handler Initialization

	pollHandler := handlers.NewPollHandler(svc, roles)
	votingHandler := handlers.NewVotingHandler(svc, roles)
	resultsHandler := handlers.NewResultsHandler(svc, roles)

Every handler shares the command surface and the role resolver.
*/
package router
