// Package resp implements the RESP2 wire format used by Redis-compatible
// key-value servers.
//
// The package has three parts:
//
//   - The reply model: Reply and ReplyType cover the five RESP reply kinds
//     (simple status, bulk value, integer, array, error) plus the null reply.
//   - The Codec: an Adapter implementation bound to an open transport that
//     encodes commands as multibulk arrays and decodes replies.
//   - Error classification: IsRetriable separates transient network failures
//     (retry-eligible) from server error replies (repeating those would
//     reproduce the same outcome).
//
// Commands are written in the multibulk form:
//
//	*<argc>\r\n$<len>\r\n<arg>\r\n...
//
// Replies are decoded from their type prefix: '+' status, '-' error,
// ':' integer, '$' bulk, '*' array. Bulk and array replies with length -1
// decode to a Nil reply.
package resp
