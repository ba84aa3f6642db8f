// Package watcher reports note changes in a vault as debounced batches.
//
// A Watcher registers every visible, non-ignored directory of the vault with
// fsnotify and forwards events for notes, ignore files and the vault config
// file. Rapid events are coalesced by a Debouncer so an editor save or a
// sync burst produces a single batch.
//
// Usage:
//
//	w, err := watcher.New(vault, watcher.DefaultOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() { _ = w.Start(ctx) }()
//	for batch := range w.Events() {
//	    // re-run the pipeline
//	}
package watcher
