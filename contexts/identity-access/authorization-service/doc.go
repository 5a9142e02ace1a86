// Package authorization is the access gate every mutating operation in the
// system consults: it maps (role, action, resource type, ownership) to an
// allow or deny verdict.
//
// Layering:
// - domain: closed role/action/resource enums and the pure rule table
// - application: ownership resolution, single and batch checks, audit logging
// - ports: provider-relationship lookup boundary
// - adapters/transport: HTTP surface for audit tooling
//
// The gate holds no state of its own. Provider relationships are read through
// a port so the rule table itself stays a pure function, and every input it
// does not recognize denies.
package authorization
