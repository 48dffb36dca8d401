// Package crawler implements the archive crawl engine.
//
// # Architecture
//
// The Engine type is the orchestrator: it owns the work queue and the
// visited set and drives a breadth-first traversal from a seed URL. Around
// it sit small, separately testable pieces:
//
//   - Canonicalizer: normalizes raw link strings into comparable URLs
//   - Extractor: produces candidate links from a textual payload
//     (AttrExtractor is the heuristic scan, DOMExtractor the structural one)
//   - DomainFilter: admits only links belonging to the archived domain
//   - Pacer: randomized inter-request delay
//   - BatchRunner: concurrency across independent seeds
//
// # Invariants
//
// No URL is ever fetched twice: a URL enters the visited set at dequeue
// time, before its fetch is attempted, so even a failing fetch consumes the
// URL. Duplicates are additionally suppressed at enqueue against both the
// visited set and the waiting queue, bounding queue growth.
//
// Partial failures do not abort a run: a fetch error is logged, recorded in
// the run report, and the loop continues. Only persistence errors are
// treated as fatal, because they indicate an unusable output target.
//
// # Politeness
//
// The engine processes one URL at a time per site and sleeps a randomized
// delay between requests. Concurrency exists only across distinct seeds.
package crawler
