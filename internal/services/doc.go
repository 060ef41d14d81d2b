// Package services implements clients for the external oracles the recommender talks to.
//
// # Interfaces
//
// Consumers depend on the small interfaces in this package rather than concrete clients:
//   - [VideoSearcher]: playlist search, playlist items, video search and statistics
//   - [Oracle]: a generative model able to answer with text or a function call
//   - [TrackSearcher]: streaming catalog search used for link enrichment
//
// # YouTube Data API
//
// [YouTubeService] authenticates with an API key passed as the "key" query parameter.
// Outbound calls are paced by a token bucket so bursts of retries stay inside the daily quota.
//
// # Gemini
//
// [GeminiService] posts to models/{model}:generateContent with the x-goog-api-key header.
// The [SearchRealMusicDeclaration] schema lets the model name a concrete artist and song.
//
// # Spotify
//
// [SpotifyService] uses the client-credentials grant; the [clientcredentials.Config] HTTP client
// fetches and refreshes tokens on its own.
//
// # Circuit breakers
//
// [BreakerVideoSearcher] and [BreakerOracle] wrap any implementation with a gobreaker circuit.
// An open circuit fails fast with [shared.ErrServiceUnavailable].
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrAPIRequest] : non-2xx response
//   - [shared.ErrAuthFailed] : 401/403 from the upstream
//   - [shared.ErrRateLimited] : 429 or quota exceeded
//   - [shared.ErrMalformedResponse] : body could not be decoded
//   - [shared.ErrServiceUnavailable] : circuit open
package services
