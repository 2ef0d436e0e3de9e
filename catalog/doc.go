// Package catalog is the data access layer over the PokéAPI catalog.
//
// Every operation is cache-first: the request URL is the cache key, and the
// upstream is only called on a miss. Wire responses are normalized before
// they are stored, so the cache holds only the fields of ItemDetail and
// flattened ItemRef lists.
//
// # Usage
//
//	store := cache.New(backend, oracle, logger)
//	http := httpclient.New(oracle, logger)
//	client, err := catalog.NewClient(catalog.DefaultBaseURL, http, store, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	refs, err := client.GetPage(ctx, 20, 0)
//	batch := client.GetManyDetails(ctx, refs)
//	for _, item := range batch.Items {
//		fmt.Println(item.ID, item.Name)
//	}
//
// # Batching
//
// GetManyDetails splits refs into batches of five (WithDetailBatchSize).
// Batches run one after another and the items of a batch run concurrently.
// An item that fails is logged and listed in DetailBatch.Failed; the rest of
// the batch still completes.
//
// # Errors
//
// Errors from the HTTP client are returned unchanged, so callers branch on
// httpclient.KindOf.
//
// # Aliases
//
// Aliases maps localized and alternate spellings to canonical names. The
// built-in table can be extended from configuration with Merge.
package catalog
