// Package httpclient issues single logical requests against the catalog API.
//
// Every call goes through the same pipeline:
//
//   - the connectivity oracle is consulted first; offline fails immediately
//     with KindOffline and no network I/O
//   - each attempt runs under its own deadline (8s by default)
//   - timeouts and 5xx answers are retried up to the attempt budget, with an
//     exponential delay plus random jitter between attempts
//   - 404 (KindNotFound), other 4xx (KindClient) and caller cancellation
//     (KindCancelled) end the request at once
//
// # Usage
//
//	client := httpclient.New(oracle, logger,
//		httpclient.WithTimeout(8*time.Second),
//		httpclient.WithMaxAttempts(3),
//	)
//
//	page, err := httpclient.Fetch[listResponse](ctx, client, url)
//	switch httpclient.KindOf(err) {
//	case httpclient.KindNotFound:
//		// show "not found"
//	case httpclient.KindCancelled:
//		// superseded, ignore
//	}
//
// Cancellation of ctx is reported as KindCancelled even though the transport
// sees the same abort as an attempt deadline; the two are told apart by
// checking which context fired.
package httpclient
