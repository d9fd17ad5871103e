// Package source provides the HTTP plumbing shared by music site scrapers.
//
// A [Session] wraps a resty client with the headers, proxy and timeout one
// site needs. Relative URLs are joined onto the session prefix, JSON payloads
// are encoded for POST and PUT, and every non-2xx reply becomes an [*Error]
// whose message reads
//
//	Http Status: 404, Code:-1 => http://site/page:
//	 Error Occured
//
// Nothing is retried. GET pages can be kept in an in-memory LRU for a short
// while, which keeps bulk runs from refetching the same song page.
//
// Sources register themselves with [Register] from an init function and are
// built by name with [New]. The name "default" resolves to [DefaultName].
//
// [InnerTexts] and [Lines] flatten markup into text nodes for scrapers.
package source
