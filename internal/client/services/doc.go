// Package services holds the client-side application services built on the
// key-value store, the settings store and the API gateway: deletion and
// submission tracking, the local workspace, project and member caches, the
// login session, and workflow-run polling.
//
// Services receive their dependencies explicitly and hold no package-level
// state. Where a service talks to the remote API it depends on a narrow
// interface satisfied by *github.Gateway, so tests substitute fakes.
package services
