// Package catalog fetches episode lists from the upstream anime catalog.
//
// RSSSource reads the incremental feed and rewrites its download host to the
// mirror. ListingSource walks the seasonal directory listing for the current
// and previous season and builds direct-play links itself. Both retry through
// the retry package and return an empty list once attempts run out.
package catalog
