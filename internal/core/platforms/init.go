// Package platforms registers all sim racing platform definitions with the
// core registry. Import this package to ensure all platforms are registered.
package platforms

// This file exists to provide a single import point.
// Each platform file uses init() to register its platforms.
