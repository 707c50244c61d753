// Package session owns the client's authentication state machine.
//
// A [Manager] moves between [Anonymous] and [Authenticated]. It is the only writer of the persisted credential pair
// (keys "token" and "user") and the credential source for the API gateway: requests read the current token
// through [Manager.Token] at send time, so after [Manager.Login] returns every request carries the new token until
// [Manager.Logout].
//
// The manager never calls the authentication endpoint itself. A login form obtains the token and user and hands
// them to [Manager.Login].
//
// Persistence failures are logged and swallowed; the session then lives for the current process only.
//
// Transitions notify subscribers and ask the [Navigator] to move to the default protected view or the login view.
package session
