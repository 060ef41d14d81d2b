// Package server provides HTTP routing, middleware, and the JSON recommendation API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
// [NewRouter] assembles the full service.
//
// # Middleware
//
//   - [RequestID] sets X-Request-ID (reused from the client when present)
//   - [Logging] emits one structured line per request
//   - [Recover] converts panics to a 500 JSON body; stacks are only exposed in dev mode
//   - [CORS] allows a single configured origin, or "*"
//   - [RateLimit] applies a per-client token bucket ([RateLimiter]) and answers 429
//
// # Endpoints
//
// POST /api/recommend accepts
//
//	{"prompt": "...", "genre": "kpop", "previousMessages": [...], "excludedSongs": ["Artist-Title", ...]}
//
// and answers 200 with the recommendation text (including the MUSIC_LINKS token) and an analysis
// block, 400 for missing or invalid fields, 405 for other methods, and 500 when no result could be
// produced. A degraded recommendation is still a 200; analysis.degraded reports it.
//
// GET /api/genres lists the selectable genres. GET /health reports liveness.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
