// Package zerobounce is a client for the ZeroBounce email validation API.
//
// A Client wraps single-address validation, the credit balance, usage
// statistics and the bulk file workflow (upload, poll, download, delete):
//
//	client := zerobounce.New(apiKey, zerobounce.WithTimeout(5*time.Second))
//	email, err := client.Validate(ctx, "someone@example.com", "")
//	if err != nil {
//		return err
//	}
//	if email.IsDoNotMail() {
//		...
//	}
//
// Every call goes through the same pipeline: parameters are checked before any
// network activity, the request is fingerprinted, and with a Cache configured
// (see the cache subpackage) successful responses are served from the cache
// until their TTL expires. Failures are reported as *ParameterError,
// *TransportError, *CacheError or *ProtocolError. Nothing is retried.
package zerobounce
