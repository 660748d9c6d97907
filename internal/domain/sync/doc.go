// Package sync contains the Synchronization bounded context.
// This context keeps orders, status fields, and inventory counts converged
// between the two commerce platforms.
//
// Key concepts:
//   - PlatformAdapter: Port interface for a commerce platform (SupplyHub, Posify)
//   - Order: Canonical, platform-agnostic order shape produced by adapters
//   - EntityMapping: Durable correspondence between the two platforms' entity IDs
//   - ConflictStrategy: Pure resolution of contested status fields
//   - SyncTask: One orchestrator run with its lifecycle, counters, and checkpoint
//   - WebhookEvent: Verified inbound event driving targeted single-entity sync
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package sync
