// Package accounts provides the credential and session core for a
// server-rendered storefront: registration, bcrypt password storage, stateless
// JWT sessions carried in a cookie, and a three tier role model.
//
// Account lifecycle:
//   - Accounts carry a Status field that is persisted via Bun. Registration
//     creates accounts directly active; suspended, disabled, and archived
//     cover operational flows, and any non active account fails login exactly
//     like a bad password.
//   - AccountStateMachine centralizes the transition graph, suspension
//     timestamps, hooks, and persistence. Invoke Transition with ActorRef
//     metadata whenever an operator moves an account.
//
// Sessions:
//   - TokenService issues and validates HS256 tokens whose claims mirror the
//     account profile, so templates render from claims without a database
//     read. Mutating the profile or password re-issues the session token.
//   - The sessionware middleware resolves every request to either a
//     claims-backed actor or an anonymous one; it never rejects a request,
//     and clears the session cookie when the token fails validation.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the command
//     handlers and the state machine to describe registration, login,
//     profile, password, and lifecycle events. Sinks run best-effort (errors
//     are logged) so you can forward to a database or queue without blocking
//     authentication.
package accounts
