// Package core contains the canonical Prisma SASE client contracts: request
// and response shapes for the transport layer, credentials and tokens, the
// error taxonomy, and runtime configuration. Transport, auth, and resource
// packages depend on this package; core must not depend on any of them.
package core
