// Package services implements the HTTP client for the music library backend.
//
// # Gateway
//
// [Gateway] owns the base URL, the [http.Client] and the default headers (Accept, User-Agent). The bearer
// credential is not a default header: it is read from a [TokenSource] every time a request is built, so a
// logout takes effect on the next request without touching shared state. [Gateway.WithToken] returns a copy
// bound to a fixed token.
//
// The gateway never retries, caches or deduplicates. An optional [rate.Limiter] throttles requests.
//
// # Errors
//
// Responses outside 2xx become a [shared.StatusError] that unwraps to the taxonomy:
//   - 401: [shared.ErrAuthentication]
//   - 403: [shared.ErrAuthorization]
//   - 404: [shared.ErrNotFound]
//   - other statuses and transport failures: [shared.ErrNetwork]
//
// The detail field of error bodies ({"detail": "..."}) becomes the error's Detail.
//
// # Client
//
// [Client] maps the REST endpoints onto [models] types:
//
//	GET    /tracks/                          Tracks
//	GET    /tracks/{id}                      Track
//	GET    /tracks/search?q=                 SearchTracks
//	GET    /playlists/                       Playlists
//	POST   /playlists/                       CreatePlaylist
//	GET    /playlists/{id}                   Playlist
//	PUT    /playlists/{id}                   RenamePlaylist
//	DELETE /playlists/{id}                   DeletePlaylist
//	POST   /playlists/{id}/tracks/{trackId}  AddTrack
//	DELETE /playlists/{id}/tracks/{trackId}  RemoveTrack
//	GET    /users/me                         Me
//
// # Authentication
//
// [Authenticator] runs the OAuth2 password grant against POST /token (form encoded username and password)
// and then resolves the user with GET /users/me.
package services
