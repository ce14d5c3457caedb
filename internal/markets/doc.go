// Package markets implements the lending-rate comparison core for the
// Movement network: feed clients for the Echelon and MovePosition money
// markets, symbol resolution across their naming schemes, rate
// normalization onto a common APY basis, protocol-wide aggregate metrics,
// and the cross-protocol comparator.
//
// Every computation is a pure function of the data fetched for that call.
// Feed failures degrade to nil feeds rather than errors so that partial
// comparisons remain possible when one protocol is unreachable.
package markets
