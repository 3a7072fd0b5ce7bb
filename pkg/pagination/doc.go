// Package pagination walks limit/offset paginated collections.
//
// The marketplace reports the size of the whole collection with every page.
// Walk fetches pages strictly in order, using the number of items collected
// so far as the next offset, and stops once the total reported by the first
// page is reached.
//
// Example usage:
//
//	items, err := pagination.Walk(ctx, pagination.FetcherFunc[Auction](fetch), 4000)
//
// The walker:
//   - Treats the first page's total as authoritative
//   - Fails with an *InconsistencyError when a page is empty before the total
//     is reached or when pages deliver more items than the total
//   - Checks ctx between pages
//   - Returns nothing on error (no partial results)
package pagination
