// Package component defines the server-owned component model: stateful
// nodes with typed attributes, per-attribute mutation whitelists, and
// optional change/confirm handlers.
//
// Composite components implement Build to produce a subtree; fundamental
// components (Text, TextInput, Switch, Column, Spacer) return nil from
// Build and are rendered by the client. Wire behavior per type - the
// mutation whitelist, conditional gates, and custom encoders for
// union-typed attributes - lives in a Spec, collected in an explicit
// Catalog that is constructed at startup and handed to the session.
package component
