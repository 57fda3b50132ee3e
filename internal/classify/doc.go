// Package classify maps candidates to News, Ad, Sponsored or Neutral.
//
// Link classification is an ordered rule chain where the first matching
// rule decides the outcome:
//
//  1. destination host is a known ad network           -> Ad
//  2. recommendation-network tracking parameter        -> Sponsored
//  3. sponsored or paid marker in the destination path -> Sponsored
//  4. container discloses sponsorship, link text does not -> Sponsored
//  5. destination host differs from the page host      -> Sponsored
//  6. visible text shorter than MinTextLength          -> Neutral
//  7. otherwise                                        -> News
//
// Rule 5 also flags legitimate external editorial links. It is kept as a
// known limitation of the heuristic.
//
// Frames and shadow-encapsulated widgets are black boxes. They are judged
// from the host element's attributes only, and an Ad or Sponsored outcome
// promotes a container to a zone so that nothing inside is classified
// again.
//
// Classification is pure: no network access and no memory between calls.
package classify
