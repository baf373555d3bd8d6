// Package web executes confirmed external updates.
//
// Searcher runs web searches through the Google Custom Search JSON API,
// throttled by a token-bucket RateLimiter. Downloader fetches documents over
// HTTP into the watch directory. Neither is ever called without a human
// confirmation upstream; callers bound every call with a timeout.
//
// Configuration keys:
//
//	web.api_key              Custom Search API key
//	web.engine_id            Programmable Search Engine id (cx)
//	web.requests_per_second  search throttle
//	web.timeout_seconds      per-action timeout
package web
