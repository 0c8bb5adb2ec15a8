// Package models defines the core domain models for billsplit.
//
// # Models
//
//   - Bill: a shared purchase owned by a user, carrying tax and tip
//   - Item: a priced line on a bill
//   - Person: someone who can be assigned items (scoped to a user)
//   - ItemAssignment: the many-to-many edge between items and people
//   - ItemDraft: an item that has not been persisted yet (receipt parsing output)
//   - User: an account; its CreatedAt is the signup date used for weekly analytics
//
// # Design Principles
//
//  1. Relationships are ID strings, never pointers
//  2. Models are plain records; all calculation lives in the calculator package
//  3. Validation that rejects input before mutation returns a *ValidationError
package models
