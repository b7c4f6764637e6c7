// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and text styles of the howto terminal output.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System

  - Purple - Spinner frames
  - Cyan - Prompts and informational text
  - Emerald - Success states
  - Amber - Cost lines and warnings
  - Rose - Errors

# Status Helpers

RenderError, RenderWarning and RenderInfo prefix a message with an ASCII
indicator ([X], [!], [i]) so the state is readable without color.
*/
package styles
