// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors: ActionableError carries the
// failed operation, the resource involved and fix suggestions, and the issue
// catalog holds longer markdown guides rendered with glamour.
package issue
