// Package fetch retrieves source bytes for the pipeline.
//
// A Router dispatches on the location's scheme: bare paths and file://
// URLs go to a FileFetcher, http and https URLs to an HTTPFetcher. The HTTP
// fetcher sends the configured User-Agent, retries transient failures
// (network errors, 429 and 5xx) with exponential backoff, honours
// Retry-After, rate limits with a token bucket and can keep an on-disk
// response cache.
package fetch
