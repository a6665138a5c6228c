// Package storegate is the HTTP client resilience layer of the store
// dashboard. Every feature call goes through a gateway.Gateway which attaches
// the bearer token held by a store.Store, retries transient failures with
// exponential backoff and tears the session down on 401. The
// session.Controller drives login, refresh and logout.
//
// Typical wiring:
//
//	client, err := storegate.New(ctx, &config.Options{BaseURL: "https://api.example.com/api/v1"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	installURL, err := client.Session.Login(ctx, "my-store")
package storegate
