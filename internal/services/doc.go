// Package services defines the [MusicService] and [CompletionService]
// interfaces and implements them for the Spotify Web API and the Groq chat
// completion API.
//
// # Music Service
//
// [SpotifyService] uses OAuth2 bearer tokens with transparent refresh: a 401
// response triggers a single token refresh and one replay of the original
// request. Concurrent callers observing the same stale token share one
// refresh. Callers register an OnTokenRefresh hook to persist rotated tokens.
//
// Bulk endpoints (audio features, playlist additions) are chunked to the API's
// 100-item ceiling and paced with a token bucket so a large profile fetch does
// not trip the upstream quota.
//
// # Completion Service
//
// [GroqService] retries transient failures up to three times with exponential
// backoff. Client errors (400, 401) are terminal and returned immediately.
// The streaming variant reads server-sent events and performs no retries.
//
// # Error Handling
//
// Services wrap typed errors from the shared package:
//   - [shared.ErrAuthentication] : token invalid after a refresh attempt
//   - [shared.ErrAuthorization] : 403, scope or permission problem
//   - [shared.ErrRateLimited] : 429, message carries the Retry-After hint
//   - [shared.ErrTransport] : any other non-2xx response
//
// Messages embed a "(status NNN)" marker so boundary layers can relay the
// upstream status via [shared.StatusFromError].
package services
