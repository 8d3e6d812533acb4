package nx584

import "errors"

// ErrCapabilityMismatch is returned by Run, during synchronization, when the panel's Interface
// Configuration response is missing a transition or request capability the
// Controller requires. It is fatal: the caller must abort synchronization
// and terminate (spec.md §7).
var ErrCapabilityMismatch = errors.New("nx584: panel is missing required capabilities")

// ErrTransportClosed is returned once the underlying serial link has failed
// unrecoverably. It is fatal: the caller must abort Run and exit non-zero
// (spec.md §7, "Transport loss").
var ErrTransportClosed = errors.New("nx584: transport closed")

// ErrAlreadyInState is returned by the high-level intents when a partition
// is already in (or transitioning toward) the requested state: disarming an
// already-disarmed partition, or re-arming an already-armed/arming one.
var ErrAlreadyInState = errors.New("nx584: partition already in requested state")

// ErrNoCredentials is returned by the high-level intents when neither a
// default PIN nor a default user number is configured.
var ErrNoCredentials = errors.New("nx584: no default PIN or user number configured")

// ErrSyncRequired is returned by the high-level intents (Disarm, ArmHome,
// ArmAway) when they are invoked before synchronization with the panel has
// completed.
var ErrSyncRequired = errors.New("nx584: panel synchronization has not completed")
