// Package auth provides credential registration and JWT authentication for
// the two principal kinds of the portal: admins and job seeking users.
//
// Principal kinds:
//   - A Policy describes the rules of one kind: which fields registration
//     requires, how emails are compared for uniqueness, which claims go in
//     the token and how long tokens live. AdminPolicy and UserPolicy return
//     the two built in policies.
//   - Each kind has its own CredentialStore. The bun backed stores keep
//     admins and users in separate tables with a unique email key, so the
//     same email may exist once per kind.
//
// Flows:
//   - Registrar validates a RegistrationRequest, rejects taken emails, hashes
//     the password and persists the account. Nothing is written when a step
//     fails.
//   - Authenticator checks an email and password pair and issues a signed
//     HS256 token through TokenService. Unknown emails and wrong passwords
//     return the same ErrInvalidCredentials.
//   - TokenService validates tokens strictly: now >= exp is expired, any
//     signature or algorithm mismatch is ErrInvalidSignature.
//
// Activity sinks:
//   - ActivitySink receives register and login outcomes. Sinks run best
//     effort (errors are logged) and MetricsSink turns them into Prometheus
//     counters.
package auth
