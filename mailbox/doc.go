// Package mailbox implements the naming protocol at the heart of deaddrop.
//
// Client and server never talk to each other. They share a flat object
// store, and every piece of protocol state is encoded in object names:
//
//	{epochMillis}-{taskId}.{in|out}.{dat|sig|err}
//
// A task is submitted as an in.dat/in.sig pair, and resolved by an
// out.dat/out.sig pair (success) or an out.err/out.sig pair (failure).
// Reconstructing tasks from a listing, ordering them for fair claiming,
// and reclaiming expired objects are all pure name manipulation.
//
// # Components
//
//   - ParseName / EncodeName: the object name codec
//   - NewTaskID: fresh 32-hex-character task ids
//   - Assemble: listing -> tasks, oldest first
//   - Sweeper: deletes objects older than twice the expiration window
//
// # Usage
//
//	names, _ := st.List()
//	names = sweeper.Sweep(names, time.Now())
//	for _, task := range mailbox.Assemble(names) {
//	    if task.Pending() {
//	        // claim it
//	    }
//	}
package mailbox
