// Package client implements the submitting side of the mailbox protocol.
//
// A Session binds a shared object store, the client keypair, and the
// server's public key. Submit signs a payload, drops it into the store as
// an input pair, and polls until a server publishes a verified result or
// the expiration window closes. Every terminal outcome except a timeout
// removes the task's objects from the store; a timed-out task is left to
// the garbage collector.
//
// # Usage
//
//	keys, err := envelope.Load("client.pem", "client.pub", "server.pub")
//	if err != nil {
//		log.Fatal(err)
//	}
//	session, err := client.NewSession(client.Config{
//		Store:          st,
//		Keys:           keys,
//		PollInterval:   time.Second,
//		TaskExpiration: time.Minute,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := session.Submit(context.Background(), []byte("alice"))
package client
