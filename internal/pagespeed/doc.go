// Package pagespeed fetches Lighthouse category scores from the Google
// PageSpeed Insights v5 API.
//
// The Client issues one runPagespeed request per URL and converts the
// 0..1 category scores of the Lighthouse result into integer scores in
// [0, 100]. It implements pipeline.Fetcher.
//
// Requests can be routed through a SOCKS5 proxy (WithProxy) for hosts that
// only reach the internet through one.
package pagespeed
