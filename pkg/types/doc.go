// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared between the matrix driver's
// internal packages and its CLI layer.
package types
