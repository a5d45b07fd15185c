package common

// This package contains shared utilities and types used across filesystem packages.
// It provides the resource error taxonomy, operation metrics and path validation.

// Note: Utility types are defined in their respective files.
// Use constructors like common.NewPathUtils() to create instances.
