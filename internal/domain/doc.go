// Package domain contains the core types shared across the application:
// stream registrations, outbound notifications, and the error taxonomy.
// It has no dependencies on other internal packages.
package domain
