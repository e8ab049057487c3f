// Package httpclient talks to the saga service under test.
//
// # HTTP Client
//
// [NewClient] creates an HTTP client tuned for load generation with connection
// reuse. A zero timeout leaves requests bounded only by the transport defaults.
//
//	client := httpclient.NewClient(0)
//
// # Target
//
// A [Target] wraps the service collection URL and exposes the two operations
// the harness consumes:
//
//	target, err := httpclient.NewTarget(url, client, headers)
//	err = target.Create(ctx, payload.Generate()) // POST <url>
//	count, err := target.List(ctx)               // GET <url>
//
// Any status outside the 2xx class is returned as a [runner.HTTPError];
// transport failures are returned as-is. Both count as failed requests.
//
// Target also builds the [runner.Requester] values for each run mode with
// [Target.CreateRequester], [Target.SeedRequester] and [Target.ListRequester].
package httpclient
