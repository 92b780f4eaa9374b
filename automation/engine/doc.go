// Comment automation engine for Instagram business accounts.
//
// This package processes normalized webhook deliveries: for each comment
// event it resolves the owning account record, fetches the active automation
// rules registered for the comment's media, evaluates their triggers, and
// executes the actions (direct message, public comment reply) of every rule
// that fires. Action failures are isolated per action and per rule, and
// nothing in this package ever fails a webhook delivery back to the
// platform.
//
// See cmd/replyflowd for the daemon built on this package.
package engine
