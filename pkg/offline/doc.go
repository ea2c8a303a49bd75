// Package offline keeps the assets of the label editor available without a
// network connection.
//
// A [Manifest] names a versioned cache and the assets it holds. A [Worker]
// installs the manifest into a [Store] (all assets or none), activates it by
// dropping every other cache version, and then answers requests cache-first
// with a network fallback:
//
//	fetcher, _ := offline.NewHTTPFetcher("https://labels.example.com/")
//	w := offline.NewWorker(offline.DefaultManifest(), offline.NewMemoryStore(), fetcher, logger)
//	if err := w.Install(ctx); err != nil {
//	    return err
//	}
//	if _, err := w.Activate(ctx); err != nil {
//	    return err
//	}
//	http.Handle("/assets/", http.StripPrefix("/assets", w.Handler()))
//
// Cached entries are never revalidated and never expire; a new asset version
// needs a new cache name. Responses fetched as a fallback are not stored.
package offline
