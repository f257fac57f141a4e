// Package store provides flat object storage backends for the mailbox.
//
// A Store is the only thing client and server share: a flat namespace of
// named byte blobs with put, get, list, and delete. There are no
// directories, no metadata, and no ordering or consistency guarantee on
// List. Everything the protocol needs to know about an object is encoded
// in its name.
//
// # Backends
//
//   - MemoryStore: in-process map, for tests and single-process setups
//   - DirStore: one file per object in a single directory
//   - HTTPStore: remote HTTP server; listing parsed from an HTML index
//   - NATSStore: NATS JetStream object store bucket
//
// # Usage
//
//	// Local development
//	st, _ := store.NewDirStore("/tmp/deaddrop")
//
//	// Remote HTTP store
//	st, _ := store.NewHTTPStore(store.HTTPStoreConfig{
//	    BaseURL: "https://drop.example.com/tasks/",
//	})
//
//	// NATS JetStream
//	conn, _ := nats.Connect(nats.DefaultURL)
//	st, _ := store.NewNATSStore(store.NATSStoreConfig{
//	    Conn:   conn,
//	    Bucket: "deaddrop",
//	})
//
//	st.Put("1700000000000-ab12.in.dat", payload)
//	names, _ := st.List()
package store
