// Package server implements the worker side of the mailbox protocol.
//
// A Server polls the shared store for pending tasks, verifies each input
// against the client's public key, runs the configured external command on
// the payload, and publishes a signed result or error. Tasks are claimed
// oldest first, at most one per iteration. A failing command leaves the
// task pending and is re-attempted on later iterations up to the configured
// budget, after which a signed error resolves the task.
//
// Multiple servers may poll the same store. Nothing prevents two instances
// from claiming the same task in the same cycle; the protocol tolerates the
// duplicate execution and the later result overwrites the earlier one.
//
// # Usage
//
//	srv, err := server.New(server.Config{
//		Store:          st,
//		Keys:           keys,
//		Command:        `tr a-z A-Z <"$DEADDROP_INPUT" >"$DEADDROP_OUTPUT"`,
//		CommandRetries: 3,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//		log.Println("server stopped:", err)
//	}
package server
