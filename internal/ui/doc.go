// Package ui provides the small terminal components the livecharts commands
// print with outside the dashboard.
//
//	Spinner        - animated status line for connecting and collecting
//	RenderTable    - static table for snapshot output
//	PickSSHHost    - interactive picker over ~/.ssh/config aliases
//
// Colors are ANSI codes so plain terminals render them too:
//
//	ColorSuccess   (green)  - successful operations
//	ColorError     (red)    - failures
//	ColorWarning   (yellow) - warnings, skipped steps
//	ColorMuted     (gray)   - secondary text, timings
package ui
