// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the howto packages.
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis, for log and error text
//   - FitWidth: display-width truncation for terminal status lines
//
// File Operations:
//   - WriteFileAtomic: crash-safe file writing, used when writing config files
package util
