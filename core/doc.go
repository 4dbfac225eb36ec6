// Package core contains the request pipeline contracts shared by every other
// package: request descriptors, exchanges and outcomes, the session state kept
// in a credential store, the error taxonomy, configuration and observability.
// Transport, codec and session packages depend on core; core must not depend
// on any of them.
package core
