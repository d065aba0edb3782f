// Package domain holds the data model shared by the register packages:
// products as seen by the cart, cart lines, the transaction request that is
// either posted to the remote data service or queued locally, and the
// committed transaction handed back for receipt rendering.
//
// Money is always decimal.Decimal. Line items snapshot the product name and
// unit price at sale time and never reference live product state afterwards,
// so a receipt printed later shows what the customer actually paid.
package domain
