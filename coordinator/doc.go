// Package coordinator owns the incrementally loaded item list that a UI
// renders.
//
// A Coordinator is in one of three modes. Browse pages through the full
// catalog with an offset cursor. Search and Category fill a queue of refs up
// front and drain it one batch per LoadMore.
//
// # Generations
//
// Every mode change (Search, FilterByCategory, Reset) starts a new
// generation: items, queue and cursor are cleared, the pending debounce timer
// is stopped and requests still in flight are cancelled. Results that arrive
// for an older generation are dropped, so a slow search can never overwrite a
// newer one.
//
// # Errors
//
// Failures surface in State.Error as a DisplayError whose Category picks the
// illustration. Loaded items are kept. Cancellation is never surfaced, and
// losing connectivity after some items are loaded ends the list quietly
// (Exhausted) until the oracle reports the network is back.
//
// # Usage
//
//	c := coordinator.New(client, oracle, logger,
//		coordinator.WithOnChange(func(s coordinator.State) { render(s) }),
//	)
//	defer c.Close()
//
//	_ = c.LoadMore(ctx)
//	c.Search(ctx, "pika")
package coordinator
