// Package textutil provides small text helpers shared by the CLI,
// currently deriving display names from filesystem paths.
package textutil
