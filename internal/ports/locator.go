package ports

import "github.com/tejashwikalptaru/tunedeck/internal/domain"

// LocatorResolver maps transient locators back to readable paths.
type LocatorResolver interface {
	// Resolve returns the path behind a transient locator.
	// ok is false for unknown or revoked locators.
	Resolve(loc domain.Locator) (path string, ok bool)
}

// LocatorRegistry issues and revokes transient locators for local files.
//
// Thread-safety: Implementations must be thread-safe.
type LocatorRegistry interface {
	LocatorResolver

	// Register issues a new transient locator for path.
	Register(path string) domain.Locator

	// Revoke releases a transient locator. Unknown locators are ignored.
	Revoke(loc domain.Locator)
}
